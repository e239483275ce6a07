package adapter

import (
	"errors"
	"testing"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

func TestCurrency_BuildRequest(t *testing.T) {
	a, err := NewCurrency("https://fx.example/convert?amount={amount}&from={from}&to={to}")
	if err != nil {
		t.Fatalf("NewCurrency: %v", err)
	}

	spec, err := a.BuildRequest(mustQuery(t, "100,5 usd to EUR"), mustDescriptor(t, "fx", service.Currency, service.Capabilities{}))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if want := "https://fx.example/convert?amount=100.5&from=USD&to=EUR"; spec.URL != want {
		t.Errorf("URL = %s, want %s", spec.URL, want)
	}
}

func TestCurrency_UnsupportedShape(t *testing.T) {
	a, _ := NewCurrency("https://fx.example/{amount}/{from}/{to}")

	for _, term := range []string{"cats", "USD to EUR", "100 dollars to euros"} {
		_, err := a.BuildRequest(mustQuery(t, term), mustDescriptor(t, "fx", service.Currency, service.Capabilities{}))
		if !errors.Is(err, domain.ErrUnsupportedQuery) {
			t.Errorf("term %q: err = %v, want ErrUnsupportedQuery", term, err)
		}
	}
}

func TestCurrency_ParseResponse(t *testing.T) {
	a, _ := NewCurrency("https://fx.example/{amount}/{from}/{to}")

	items, err := a.ParseResponse([]byte(`{"amount": 100, "from": "USD", "to": "EUR", "result": 92.3, "rate": 0.923}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(items) != 1 || items[0].Kind != result.KindAnswer {
		t.Fatalf("items = %+v", items)
	}
	if want := "100 USD = 92.3 EUR"; items[0].Text != want {
		t.Errorf("Text = %q, want %q", items[0].Text, want)
	}
}

func TestCurrency_EmptyPayload(t *testing.T) {
	a, _ := NewCurrency("https://fx.example/{amount}/{from}/{to}")

	items, err := a.ParseResponse([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}
