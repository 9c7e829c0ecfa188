package model

// Payment origin kinds.
const (
	OriginCoin    = "coin"
	OriginVoucher = "voucher"
)

// PaymentOrigin is a tagged variant describing where a credit came from.
// Coin credits carry the funding slot; voucher credits carry the code.
type PaymentOrigin struct {
	Kind        string `json:"kind"`
	SlotID      string `json:"slot_id,omitempty"`
	VoucherCode string `json:"voucher_code,omitempty"`
}

func CoinOrigin(slotID string) PaymentOrigin {
	return PaymentOrigin{Kind: OriginCoin, SlotID: slotID}
}

func VoucherOrigin(code string) PaymentOrigin {
	return PaymentOrigin{Kind: OriginVoucher, VoucherCode: code}
}
