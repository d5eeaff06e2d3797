package explorer

import (
	"testing"
	"time"

	"wallet_scorer/internal/domain/entity"
)

func TestRowToTransactionParsesNumericStrings(t *testing.T) {
	row := txRow{
		TimeStamp: "1709287200", // 2024-03-01 10:00:00 UTC
		Hash:      "0xABC",
		From:      "0xD8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		To:        "0xCONTRACT",
		Value:     "1500000000000000000",
		GasUsed:   "21000",
		GasPrice:  "1000000000",
	}

	tx := rowToTransaction(row, entity.TxExternal)

	if !tx.Timestamp.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", tx.Timestamp)
	}
	if tx.From != "0xd8da6bf26964af9d7eed9e03e53415d37aa96045" {
		t.Errorf("expected lowercased from, got %s", tx.From)
	}
	if tx.To != "0xcontract" {
		t.Errorf("expected lowercased to, got %s", tx.To)
	}
	if tx.Value.String() != "1500000000000000000" {
		t.Errorf("unexpected value %s", tx.Value)
	}
	if tx.GasUsed != 21000 {
		t.Errorf("unexpected gasUsed %d", tx.GasUsed)
	}
	if tx.GasPrice.String() != "1000000000" {
		t.Errorf("unexpected gasPrice %s", tx.GasPrice)
	}
	if tx.Kind != entity.TxExternal {
		t.Errorf("unexpected kind %v", tx.Kind)
	}
}

func TestRowToTransactionTokenFields(t *testing.T) {
	row := txRow{
		TimeStamp:    "1709287200",
		Hash:         "0xdef",
		Value:        "500000000",
		ContractAddr: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		TokenName:    "USD Coin",
		TokenSymbol:  "USDC",
		TokenDecimal: "6",
		TokenID:      "",
	}

	tx := rowToTransaction(row, entity.TxTokenTransfer)

	if tx.TokenContract != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Errorf("expected lowercased token contract, got %s", tx.TokenContract)
	}
	if tx.TokenSymbol != "USDC" || tx.TokenDecimals != 6 {
		t.Errorf("unexpected token metadata: %s/%d", tx.TokenSymbol, tx.TokenDecimals)
	}
}

func TestRowToTransactionTolerantOfEmptyFields(t *testing.T) {
	tx := rowToTransaction(txRow{Hash: "0x1"}, entity.TxInternal)

	if tx.Value == nil || tx.Value.Sign() != 0 {
		t.Errorf("expected zero value for empty string, got %v", tx.Value)
	}
	if tx.GasUsed != 0 || tx.TokenDecimals != 0 {
		t.Errorf("expected zeroed numeric fields, got %d/%d", tx.GasUsed, tx.TokenDecimals)
	}
}

func TestListResponseEnvelopeNoRowsStatus(t *testing.T) {
	// Status "0" carries the message in place of rows; the result payload can
	// be a string rather than an array and must still unmarshal.
	body := []byte(`{"status":"0","message":"No transactions found","result":"[]"}`)

	var envelope listResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if envelope.Status != "0" {
		t.Errorf("unexpected status %s", envelope.Status)
	}
}

func TestListResponseEnvelopeRows(t *testing.T) {
	body := []byte(`{"status":"1","message":"OK","result":[{"hash":"0x1","timeStamp":"1709287200","value":"1"}]}`)

	var envelope listResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	var rows []txRow
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		t.Fatalf("unexpected result unmarshal error: %v", err)
	}
	if len(rows) != 1 || rows[0].Hash != "0x1" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
