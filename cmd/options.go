package cmd

import (
	"oauthrelay/internal/callback"
	"oauthrelay/internal/config"
	"oauthrelay/internal/deliver"
)

// deliveryOptions converts the delivery configuration into deliverer options.
func deliveryOptions(cfg config.DeliveryConfig) (deliver.Options, error) {
	msg, err := callback.NewMessageTemplate(cfg.MessageTemplate)
	if err != nil {
		return deliver.Options{}, err
	}
	return deliver.Options{
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
		SettleDelay:  cfg.SettleDelay,
		Message:      msg,
	}, nil
}
