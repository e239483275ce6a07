package service

// Protocol is the request/response shape an upstream service speaks.
type Protocol string

const (
	// Direct is a general request/response search upstream.
	Direct Protocol = "direct"
	// Dictionary is a term-translation upstream needing a language pair.
	Dictionary Protocol = "dictionary"
	// Currency is a conversion upstream needing an amount and a currency pair.
	Currency Protocol = "currency"
	// URLPattern replays a URL embedded in the query instead of a text term.
	URLPattern Protocol = "urlpattern"
	// Offline produces results synchronously from a local source, no network.
	Offline Protocol = "offline"
)

// IsValid reports whether p is a known protocol.
func (p Protocol) IsValid() bool {
	switch p {
	case Direct, Dictionary, Currency, URLPattern, Offline:
		return true
	}
	return false
}

func (p Protocol) String() string { return string(p) }
