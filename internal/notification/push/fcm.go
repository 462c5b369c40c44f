package push

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the multicast ceiling imposed by FCM.
const fcmBatchLimit = 500

type FCMClient struct {
	messaging *messaging.Client
}

// NewFCMClient builds a client from a Firebase service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*FCMClient, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMClient{messaging: client}, nil
}

// Push sends to every token and returns the tokens FCM reports as
// unregistered.
func (f *FCMClient) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var stale []string
	for start := 0; start < len(tokens); start += fcmBatchLimit {
		end := min(start+fcmBatchLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := f.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		})
		if err != nil {
			return stale, err
		}
		for i, r := range resp.Responses {
			if !r.Success && messaging.IsUnregistered(r.Error) {
				stale = append(stale, batch[i])
			}
		}
	}
	return stale, nil
}
