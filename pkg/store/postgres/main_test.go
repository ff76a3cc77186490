package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/uptrace/bun"

	"github.com/cardledger/cardledger/pkg/models"
	"github.com/cardledger/cardledger/pkg/testutils"
)

var testDB *bun.DB

func TestMain(m *testing.M) {
	if testutils.GetDSN() != "" {
		appState := &models.AppState{Config: testutils.NewTestConfig()}

		var err error
		testDB, err = NewPostgresConn(appState)
		if err != nil {
			panic(err)
		}
		if err := CreateSchema(context.Background(), testDB); err != nil {
			panic(err)
		}
	}

	os.Exit(m.Run())
}

// skipIfNoDB skips tests that need a live postgres instance.
func skipIfNoDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("CARDLEDGER_TEST_DSN not set")
	}
}
