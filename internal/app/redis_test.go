package app

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestKeyCollection(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cmd  redis.Cmder
		want string
	}{
		{redis.NewStringCmd(ctx, "get", "cache:booking:12"), "cache"},
		{redis.NewBoolCmd(ctx, "setnx", "lock:booking:12", "token"), "lock"},
		{redis.NewIntCmd(ctx, "zrem", "drivers:locations", "7"), "drivers"},
		{redis.NewStringCmd(ctx, "get", "plain"), "plain"},
		{redis.NewStatusCmd(ctx, "ping"), "redis"},
		{redis.NewStringCmd(ctx, "get", ":odd"), ":odd"},
	}

	for _, tt := range tests {
		if got := keyCollection(tt.cmd); got != tt.want {
			t.Errorf("keyCollection(%v) = %q, want %q", tt.cmd.Args(), got, tt.want)
		}
	}
}
