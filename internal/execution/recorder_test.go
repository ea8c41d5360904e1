package execution

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

func TestJSONLRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "trades.jsonl")
	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}

	exec := NewExecutor(zerolog.Nop(), &fakeSubmitter{sig: solana.Signature{7}}).WithRecorder(recorder)
	if _, err := exec.Execute(context.Background(), "agent-a", testPlan(solana.NewWallet().PublicKey()), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	recorder.Record(TradeOutcome{AgentID: "after-close"})

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lines []TradeOutcome
	for scanner.Scan() {
		var decoded TradeOutcome
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		lines = append(lines, decoded)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one journal line, got %d", len(lines))
	}
	if lines[0].AgentID != "agent-a" || lines[0].Status != StatusConfirmed || lines[0].Fee != 100_000 {
		t.Fatalf("unexpected journal entry %+v", lines[0])
	}
}
