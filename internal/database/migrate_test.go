package database

import (
	"strings"
	"testing"
)

func TestSchemaDefinesEveryTable(t *testing.T) {
	s := Schema()
	for _, table := range []string{"users", "groups", "group_members", "expenses", "expense_splits", "settlements", "notifications"} {
		if !strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema is missing table %s", table)
		}
	}
}

func TestSchemaStoresMoneyAsNumeric(t *testing.T) {
	if strings.Contains(strings.ToUpper(Schema()), "FLOAT") || strings.Contains(strings.ToUpper(Schema()), "DOUBLE") {
		t.Error("amounts must not be stored as floating point")
	}
	if !strings.Contains(Schema(), "NUMERIC(12,2)") {
		t.Error("expected NUMERIC(12,2) amount columns")
	}
}
