package notify

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LineSender pushes chat text through the LINE Messaging API.
type LineSender struct {
	api *messaging_api.MessagingApiAPI
}

// NewLineSender creates a new LineSender for the given channel token.
func NewLineSender(channelToken string) (*LineSender, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}
	return &LineSender{api: api}, nil
}

// PushText sends a single text message to a LINE user.
func (s *LineSender) PushText(ctx context.Context, chatUserID, text string) error {
	_, err := s.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To: chatUserID,
		Messages: []messaging_api.MessageInterface{
			&messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	return nil
}
