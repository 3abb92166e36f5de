package consumer

import (
	"context"
	"encoding/json"

	e "errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/problems"
	"github.com/skilldocs/grader/internal/rabbitmq/channel"
	"github.com/skilldocs/grader/internal/rabbitmq/responder"
	"github.com/skilldocs/grader/internal/scheduler"
	"github.com/skilldocs/grader/pkg/constants"
	"github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/messages"
	"go.uber.org/zap"
)

type Consumer interface {
	Listen()
}

type consumer struct {
	channel   channel.Channel
	queueName string
	store     problems.Store
	scheduler scheduler.Scheduler
	responder responder.Responder
	logger    *zap.SugaredLogger
}

func NewConsumer(
	ch channel.Channel,
	queueName string,
	store problems.Store,
	sched scheduler.Scheduler,
	resp responder.Responder,
) Consumer {
	return &consumer{
		channel:   ch,
		queueName: queueName,
		store:     store,
		scheduler: sched,
		responder: resp,
		logger:    logger.NewNamedLogger("consumer"),
	}
}

func (c *consumer) Listen() {
	c.logger.Infof("Declaring queue %s", c.queueName)

	args := make(amqp.Table)
	args["x-max-priority"] = 3
	_, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, args)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.queueName, err)
	}

	c.logger.Infof("Listening for messages on queue %s", c.queueName)

	msgs, err := c.channel.Consume(c.queueName, "", true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.queueName, err)
	}

	for msg := range msgs {
		var queueMessage messages.QueueMessage
		if err := json.Unmarshal(msg.Body, &queueMessage); err != nil {
			c.logger.Errorf("Failed to unmarshal message: %s", err)
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, msg.ReplyTo, err)
			continue
		}

		switch queueMessage.Type {
		case constants.QueueMessageTypeRun:
			c.logger.Infof("Received run message: %s", queueMessage.MessageID)
			c.handleRunMessage(queueMessage, msg.ReplyTo)
		case constants.QueueMessageTypeStatus:
			c.logger.Infof("Received status message: %s", queueMessage.MessageID)
			c.handleStatusMessage(queueMessage, msg.ReplyTo)
		case constants.QueueMessageTypeHandshake:
			c.logger.Infof("Received handshake message: %s", queueMessage.MessageID)
			c.handleHandshakeMessage(queueMessage, msg.ReplyTo)
		default:
			c.logger.Errorf("Unknown message type: %s", queueMessage.Type)
			c.responder.PublishErrorToResponseQueue(
				queueMessage.Type,
				queueMessage.MessageID,
				msg.ReplyTo,
				errors.ErrUnknownMessageType)
		}
	}
}

func (c *consumer) handleRunMessage(queueMessage messages.QueueMessage, replyTo string) {
	// Decode into a value so a "null" payload degrades to a zero message
	// instead of a nil pointer; the problem lookup below rejects it.
	var run messages.RunQueueMessage
	if err := json.Unmarshal(queueMessage.Payload, &run); err != nil {
		c.logger.Errorf("Failed to unmarshal run message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}

	def, err := c.store.Get(run.ProblemID)
	if err != nil {
		c.logger.Errorf("Run message references unknown problem %q", run.ProblemID)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}

	source := run.Source
	if run.UseSolution {
		if !def.HasSolution() {
			c.responder.PublishErrorToResponseQueue(
				queueMessage.Type, queueMessage.MessageID, replyTo, errors.ErrNoSolution)
			return
		}
		source = def.Solution
	}

	go func() {
		result, err := c.scheduler.GradeSubmission(context.Background(), queueMessage.MessageID, def, source)
		if err != nil {
			if e.Is(err, errors.ErrFailedToGetFreeWorker) {
				if requeueErr := c.requeueRunWithPriority2(queueMessage); requeueErr != nil {
					c.logger.Errorf("Failed to requeue run with higher priority: %s", requeueErr)
					c.responder.PublishErrorToResponseQueue(
						queueMessage.Type, queueMessage.MessageID, replyTo, requeueErr)
				}
				return
			}
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
			return
		}

		if err := c.responder.PublishGradingRespond(
			queueMessage.Type, queueMessage.MessageID, replyTo, result); err != nil {
			c.logger.Errorf("Failed to publish grading result: %s", err)
		}
	}()
}

func (c *consumer) requeueRunWithPriority2(queueMessage messages.QueueMessage) error {
	priority := 2

	queueMessageJSON, err := json.Marshal(queueMessage)
	if err != nil {
		c.logger.Errorf("Failed to marshal queue message: %s", err)
		return err
	}

	return c.channel.Publish("", c.queueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: queueMessage.MessageID,
		Body:          queueMessageJSON,
		Priority:      uint8(priority),
	})
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage, replyTo string) {
	status := c.scheduler.GetWorkersStatus()

	err := c.responder.PublishStatusRespond(queueMessage.Type, queueMessage.MessageID, replyTo, status)
	if err != nil {
		c.logger.Errorf("Failed to publish status message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage, replyTo string) {
	defs := c.store.List()
	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}

	err := c.responder.PublishHandshakeRespond(queueMessage.Type, queueMessage.MessageID, replyTo, ids)
	if err != nil {
		c.logger.Errorf("Failed to publish problem list: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}
