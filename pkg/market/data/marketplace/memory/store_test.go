package memory

import (
	"testing"

	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace/tests"
)

func TestMarketplaceMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}

	tests.RunTests(t, testStore, teardown)
}
