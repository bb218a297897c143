package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSQSClient is a mock implementation of the SQS client for testing.
type mockSQSClient struct {
	sendMessageFunc func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func (m *mockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, params, optFns...)
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisher_PublishProductMessage(t *testing.T) {
	queueURL := "https://sqs.us-east-1.amazonaws.com/123456789/catalog-events"
	ctx := context.Background()

	t.Run("successful message publish", func(t *testing.T) {
		mockClient := &mockSQSClient{
			sendMessageFunc: func(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
				assert.Equal(t, queueURL, *params.QueueUrl)
				require.NotNil(t, params.MessageBody)

				var sent ProductMessage
				require.NoError(t, json.Unmarshal([]byte(*params.MessageBody), &sent))
				assert.Equal(t, "product.sold", sent.Action)
				assert.Equal(t, int64(42), sent.ProductID)
				assert.Equal(t, int64(3), sent.Quantity)

				return &sqs.SendMessageOutput{MessageId: aws.String("test-message-id")}, nil
			},
		}

		publisher := &Publisher{client: mockClient, queueURL: queueURL}

		msg := ProductMessage{
			Action:    "product.sold",
			ProductID: 42,
			Name:      "Test Product",
			Price:     99.99,
			Quantity:  3,
		}

		err := publisher.PublishProductMessage(ctx, msg)
		require.NoError(t, err)
	})

	t.Run("error sending message", func(t *testing.T) {
		expectedErr := errors.New("failed to send message")
		mockClient := &mockSQSClient{
			sendMessageFunc: func(_ context.Context, _ *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
				return nil, expectedErr
			},
		}

		publisher := &Publisher{client: mockClient, queueURL: queueURL}

		err := publisher.PublishProductMessage(ctx, ProductMessage{Action: "product.created", ProductID: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
	})
}
