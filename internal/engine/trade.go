package engine

import "encoding/json"

// Trade is an accepted order progressing through an HTLC-style atomic swap.
// It owns a copy of the consumed order; the string slots hold opaque contract
// and transaction identifiers reported by the two clients. The commission
// flags are monotonic: once true they never revert.
//
// The commission flags are spelled commissionInitiatorPaid and
// commissionParticipantPaid on the wire; that spelling is part of the
// contract even though it differs from the field names here.
type Trade struct {
	ID                               int64  `json:"id"`
	Order                            *Order `json:"order"`
	InitiatorAddress                 string `json:"initiatorAddress"`
	SecretHash                       string `json:"secretHash"`
	ContractInitiator                string `json:"contractInitiator"`
	ContractParticipant              string `json:"contractParticipant"`
	InitiatorContractTransaction     string `json:"initiatorContractTransaction"`
	ParticipantContractTransaction   string `json:"participantContractTransaction"`
	InitiatorRedemptionTransaction   string `json:"initiatorRedemptionTransaction"`
	ParticipantRedemptionTransaction string `json:"participantRedemptionTransaction"`
	InitiatorCommissionPaid          bool   `json:"commissionInitiatorPaid"`
	ParticipantCommissionPaid        bool   `json:"commissionParticipantPaid"`
}

// MakerAddress returns the owner address of the consumed order.
func (t *Trade) MakerAddress() string {
	return t.Order.Address
}

// TradeUpdate is the trade payload of an update_trade command.
type TradeUpdate struct {
	ID                               int64  `json:"id"`
	SecretHash                       string `json:"secretHash"`
	ContractInitiator                string `json:"contractInitiator"`
	ContractParticipant              string `json:"contractParticipant"`
	InitiatorContractTransaction     string `json:"initiatorContractTransaction"`
	ParticipantContractTransaction   string `json:"participantContractTransaction"`
	InitiatorRedemptionTransaction   string `json:"initiatorRedemptionTransaction"`
	ParticipantRedemptionTransaction string `json:"participantRedemptionTransaction"`
	CommissionInitiatorPaid          bool   `json:"commissionInitiatorPaid"`
	CommissionParticipantPaid        bool   `json:"commissionParticipantPaid"`
}

// parseTradeUpdate decodes an update payload. A malformed payload decodes to
// the zero update, whose id 0 never matches a stored trade.
func parseTradeUpdate(payload []byte) *TradeUpdate {
	var u TradeUpdate
	if len(payload) == 0 || json.Unmarshal(payload, &u) != nil {
		return &TradeUpdate{}
	}
	return &u
}

// apply overwrites the opaque slots and ORs the commission flags.
func (t *Trade) apply(u *TradeUpdate) {
	t.SecretHash = u.SecretHash
	t.ContractInitiator = u.ContractInitiator
	t.ContractParticipant = u.ContractParticipant
	t.InitiatorContractTransaction = u.InitiatorContractTransaction
	t.ParticipantContractTransaction = u.ParticipantContractTransaction
	t.InitiatorRedemptionTransaction = u.InitiatorRedemptionTransaction
	t.ParticipantRedemptionTransaction = u.ParticipantRedemptionTransaction
	if !t.InitiatorCommissionPaid {
		t.InitiatorCommissionPaid = u.CommissionInitiatorPaid
	}
	if !t.ParticipantCommissionPaid {
		t.ParticipantCommissionPaid = u.CommissionParticipantPaid
	}
}
