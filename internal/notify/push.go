package notify

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// fcmBatchLimit is the gateway's hard cap on tokens per multicast request.
const fcmBatchLimit = 500

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// PushSender dispatches push notifications in independent batches. Invalid
// tokens are skipped, a failed batch is logged and never blocks the others.
type PushSender struct {
	client    multicastSender
	batchSize int
	logger    *zap.SugaredLogger
}

func NewPushSender(client multicastSender, batchSize int, logger *zap.SugaredLogger) *PushSender {
	if batchSize <= 0 || batchSize > fcmBatchLimit {
		batchSize = fcmBatchLimit
	}
	return &PushSender{
		client:    client,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (p *PushSender) Send(ctx context.Context, tokens []string, notification *messaging.Notification, data map[string]string) {

	valid := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !PushToken(token).Valid() {
			p.logger.Warnf("Skipping invalid push token %q", truncateToken(token))
			continue
		}
		valid = append(valid, token)
	}

	if len(valid) == 0 {
		return
	}

	for start := 0; start < len(valid); start += p.batchSize {
		end := start + p.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       chunk,
			Notification: notification,
			Data:         data,
		})
		if err != nil {
			p.logger.Errorf("Push batch of %d failed: %v", len(chunk), err)
			continue
		}
		if resp.FailureCount > 0 {
			p.logger.Warnf("Push batch: %d sent, %d failed", resp.SuccessCount, resp.FailureCount)
		}
	}
}

func truncateToken(token string) string {
	if len(token) > 16 {
		return token[:16] + "..."
	}
	return token
}
