package adapter

import (
	"testing"

	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

func TestOffline_BuildRequestIsNoop(t *testing.T) {
	a, err := NewOffline(NewStaticSource(nil))
	if err != nil {
		t.Fatalf("NewOffline: %v", err)
	}

	spec, err := a.BuildRequest(mustQuery(t, "anything"), mustDescriptor(t, "local", service.Offline, service.Capabilities{}))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if spec != nil {
		t.Errorf("spec = %+v, want nil", spec)
	}
}

func TestOffline_SearchLocal(t *testing.T) {
	src := NewStaticSource([]result.Partial{
		result.Standard("https://docs.example/go", "Go documentation", "the Go programming language"),
		result.Standard("https://docs.example/rust", "Rust documentation", "the Rust programming language"),
	})
	a, _ := NewOffline(src)

	items, err := a.SearchLocal(mustQuery(t, "go doc"))
	if err != nil {
		t.Fatalf("SearchLocal: %v", err)
	}
	if len(items) != 1 || items[0].URL != "https://docs.example/go" {
		t.Fatalf("items = %+v", items)
	}

	items, _ = a.SearchLocal(mustQuery(t, "programming"))
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}
