package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pc_shop/internal/pix"
)

type Step string

const (
	StepCollectingIdentity Step = "collecting_identity"
	StepCollectingPayment  Step = "collecting_payment"
	StepCompleted          Step = "completed"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

func (c Customer) complete() bool {
	return c.Name != "" && c.Email != "" && c.CPF != ""
}

type Session struct {
	CartID           string    `json:"cart_id"`
	Step             Step      `json:"step"`
	Customer         Customer  `json:"customer"`
	PixTransactionID string    `json:"pix_transaction_id,omitempty"`
	OrderID          uuid.UUID `json:"order_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newSession(cartID string) *Session {
	return &Session{CartID: cartID, Step: StepCollectingIdentity}
}

const successRoute = "/checkout/success?orderId="

func ConfirmationRoute(orderID uuid.UUID) string {
	return successRoute + orderID.String()
}

// FormatCPF renders an 11-digit CPF as 000.000.000-00. Anything else is
// returned trimmed but otherwise untouched.
func FormatCPF(s string) string {
	d := pix.OnlyDigits(s)
	if len(d) != 11 {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[0:3], d[3:6], d[6:9], d[9:11])
}
