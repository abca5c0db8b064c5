// Package notify mails quote confirmations to customers and the sales team.
package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/i18n"
)

type QuoteNotifier struct {
	mailer     Mailer
	tr         *i18n.Translator
	salesInbox string
}

func NewQuoteNotifier(mailer Mailer, tr *i18n.Translator, salesInbox string) *QuoteNotifier {
	return &QuoteNotifier{mailer: mailer, tr: tr, salesInbox: salesInbox}
}

// QuoteSubmitted sends both emails in the language the request was made in.
// A failure of one does not stop the other.
func (n *QuoteNotifier) QuoteSubmitted(ctx context.Context, q *model.QuoteRequest) error {
	var items []model.QuoteItem
	if len(q.Items) > 0 {
		if err := json.Unmarshal(q.Items, &items); err != nil {
			return err
		}
	}
	data := map[string]any{
		"Name":        q.ContactName,
		"Email":       q.Email,
		"Phone":       q.Phone,
		"Institution": q.Institution,
		"Reference":   q.ReferenceNumber,
		"ItemCount":   len(items),
	}

	var errs []error
	errs = append(errs, n.mailer.Send(ctx, Message{
		To:      []string{q.Email},
		Subject: n.tr.T(q.Language, "notify.quote.customer_subject", data),
		Body:    n.tr.T(q.Language, "notify.quote.customer_body", data),
	}))
	if n.salesInbox != "" {
		errs = append(errs, n.mailer.Send(ctx, Message{
			To:      []string{n.salesInbox},
			Subject: n.tr.T(q.Language, "notify.quote.sales_subject", data),
			Body:    n.tr.T(q.Language, "notify.quote.sales_body", data),
		}))
	}
	return errors.Join(errs...)
}
