package infrastructure

import (
	"context"
	"fmt"

	omise "github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"

	"ispwallet/service"
)

// OmiseGateway implements service.ChargeGateway on the Omise API.
type OmiseGateway struct {
	client *omise.Client
}

// NewOmiseGateway creates a gateway from API keys.
func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create omise client: %w", err)
	}
	return &OmiseGateway{client: client}, nil
}

// CreateCharge charges a card token. amount is in minor units (satang).
func (g *OmiseGateway) CreateCharge(ctx context.Context, amount int64, currency, cardToken, description string) (*service.Charge, error) {
	charge := &omise.Charge{}
	err := g.client.Do(charge, &operations.CreateCharge{
		Amount:      amount,
		Currency:    currency,
		Card:        cardToken,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}
	return chargeFromOmise(charge), nil
}

// RetrieveCharge fetches the current state of a charge.
func (g *OmiseGateway) RetrieveCharge(ctx context.Context, chargeID string) (*service.Charge, error) {
	charge := &omise.Charge{}
	err := g.client.Do(charge, &operations.RetrieveCharge{ChargeID: chargeID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve charge %s: %w", chargeID, err)
	}
	return chargeFromOmise(charge), nil
}

func chargeFromOmise(c *omise.Charge) *service.Charge {
	return &service.Charge{
		ID:       c.ID,
		Paid:     c.Paid,
		Amount:   c.Amount,
		Currency: c.Currency,
	}
}
