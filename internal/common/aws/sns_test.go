package aws

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSNSAPI struct {
	mock.Mock
}

func (m *MockSNSAPI) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestPublishMessage(t *testing.T) {
	api := new(MockSNSAPI)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:123:risk" &&
			aws.ToString(in.Subject) == "High risk" &&
			aws.ToString(in.MessageAttributes["capability"].StringValue) == "probability"
	})).Return(&sns.PublishOutput{MessageId: aws.String("msg-1")}, nil)

	client := NewSNSClientWithAPI(api)
	id, err := client.PublishMessage(context.Background(), "arn:aws:sns:us-east-1:123:risk", "High risk", "{}",
		map[string]string{"capability": "probability"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestPublishMessage_Error(t *testing.T) {
	api := new(MockSNSAPI)
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("throttled"))

	_, err := NewSNSClientWithAPI(api).PublishMessage(context.Background(), "arn", "", "{}", nil)
	assert.Error(t, err)
}
