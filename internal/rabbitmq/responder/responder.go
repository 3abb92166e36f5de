package responder

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/rabbitmq/channel"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/messages"
	"go.uber.org/zap"
)

type Responder interface {
	PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error)
	PublishGradingRespond(messageType, messageID, responseQueue string, result grading.Result) error
	PublishStatusRespond(messageType, messageID, responseQueue string, statusMap map[string]interface{}) error
	PublishHandshakeRespond(messageType, messageID, responseQueue string, problemIDs []string) error
}

type responder struct {
	logger  *zap.SugaredLogger
	channel channel.Channel
}

func NewResponder(ch channel.Channel) Responder {
	return &responder{
		logger:  logger.NewNamedLogger("responder"),
		channel: ch,
	}
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error) {
	errorPayload := map[string]string{"error": err.Error()}
	payload, jsonErr := json.Marshal(errorPayload)
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s", jsonErr)
		return
	}

	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        false,
		Payload:   payload,
	}

	responseJSON, jsonErr := json.Marshal(queueMessage)
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal response message: %s", jsonErr)
		return
	}

	if err := r.channel.Publish("", responseQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	}); err != nil {
		r.logger.Errorf("Failed to publish error message: %s", err)
		return
	}

	r.logger.Infof("Published error message to response queue: %s", messageID)
}

func (r *responder) PublishGradingRespond(
	messageType, messageID, responseQueue string,
	result grading.Result,
) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return r.publishRespondMessage(messageType, messageID, responseQueue, payload)
}

func (r *responder) PublishStatusRespond(
	messageType, messageID, responseQueue string,
	statusMap map[string]interface{},
) error {
	payload, err := json.Marshal(statusMap)
	if err != nil {
		return err
	}

	return r.publishRespondMessage(messageType, messageID, responseQueue, payload)
}

func (r *responder) PublishHandshakeRespond(
	messageType, messageID, responseQueue string,
	problemIDs []string,
) error {
	handshakePayload := struct {
		Problems []string `json:"problems"`
	}{
		Problems: problemIDs,
	}

	payload, err := json.Marshal(handshakePayload)
	if err != nil {
		return err
	}

	return r.publishRespondMessage(messageType, messageID, responseQueue, payload)
}

func (r *responder) publishRespondMessage(messageType, messageID, responseQueue string, payload []byte) error {
	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        true,
		Payload:   payload,
	}

	responseJSON, jsonErr := json.Marshal(queueMessage)
	if jsonErr != nil {
		return jsonErr
	}

	r.logger.Infof("Publishing response message to response queue: %s", responseQueue)
	return r.channel.Publish("", responseQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
}
