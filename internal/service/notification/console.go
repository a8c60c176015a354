package notification

import (
	"context"
	"fmt"
)

// ConsoleChannel 开发环境用的控制台通知
type ConsoleChannel struct {
}

func NewConsoleChannel() Channel {
	return ConsoleChannel{}
}

func (c ConsoleChannel) Name() string {
	return "console"
}

func (c ConsoleChannel) Send(ctx context.Context, payload Payload) error {
	fmt.Printf("ALERT TRIGGERED [%s]\n%s\n%s\n", payload.AlertId, payload.Title(), payload.Body())
	return nil
}
