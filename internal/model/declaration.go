package model

import "time"

// Material enumerates the recycling material categories a citizen
// may declare.  Plastic, glass, metal and paper are measured in
// kilograms; electronic items are counted per unit.
type Material string

const (
	MaterialPlastic    Material = "plastic"
	MaterialGlass      Material = "glass"
	MaterialMetal      Material = "metal"
	MaterialPaper      Material = "paper"
	MaterialElectronic Material = "electronic"
)

// Materials lists every category in declaration order.
var Materials = []Material{
	MaterialPlastic, MaterialGlass, MaterialMetal, MaterialPaper, MaterialElectronic,
}

// RewardRates maps each material to its reward per kilogram (or
// per unit for electronics), in the smallest token unit.
var RewardRates = map[Material]uint64{
	MaterialPlastic:    10,
	MaterialGlass:      12,
	MaterialMetal:      15,
	MaterialPaper:      8,
	MaterialElectronic: 25,
}

// Quantity limits per declaration.  Electronics are capped per
// item count, everything else per kilogram.
const (
	MaxMaterialKg     = 100
	MaxElectronicUnit = 20
)

// MaterialQuantities holds the declared amount per category.
type MaterialQuantities struct {
	Plastic    uint64 `json:"plastic"`
	Glass      uint64 `json:"glass"`
	Metal      uint64 `json:"metal"`
	Paper      uint64 `json:"paper"`
	Electronic uint64 `json:"electronic"`
}

// Get returns the declared quantity for a material.
func (q MaterialQuantities) Get(m Material) uint64 {
	switch m {
	case MaterialPlastic:
		return q.Plastic
	case MaterialGlass:
		return q.Glass
	case MaterialMetal:
		return q.Metal
	case MaterialPaper:
		return q.Paper
	case MaterialElectronic:
		return q.Electronic
	}
	return 0
}

// Reward computes the total reward for the declared quantities
// over the fixed rate table.
func (q MaterialQuantities) Reward() uint64 {
	var total uint64
	for _, m := range Materials {
		total += q.Get(m) * RewardRates[m]
	}
	return total
}

// Empty reports whether no material was declared at all.
func (q MaterialQuantities) Empty() bool {
	for _, m := range Materials {
		if q.Get(m) > 0 {
			return false
		}
	}
	return true
}

// DeclarationToken is a one-time, expiring claim on a recycling
// reward.  The content hash is the replay key: once a token is
// redeemed (approved or marked fraud) the hash can never be
// consumed again.  Tokens that expire unused stay in the table but
// are inert.
//
// Fields:
//  TokenID    – opaque identifier embedded in the QR payload.
//  Identity   – declaring account.
//  Quantities – declared amounts per material.
//  Hash       – SHA-256 content hash over account, quantities and
//               issuance time; unique, consumed at most once.
//  Reward     – total reward computed at issuance.
//  IssuedAt   – issuance timestamp.
//  ExpiresAt  – IssuedAt plus the configured TTL (reference: 3h).
//  Used       – consumed flag; transitions once from false to true.
//  Decision   – APPROVED or FRAUD once redeemed, empty before.
//  DecidedBy  – staff identity that redeemed the token.
type DeclarationToken struct {
	TokenID    string             // declaration_tokens.token_id
	Identity   string             // declaration_tokens.identity
	Quantities MaterialQuantities // declaration_tokens.*_qty columns
	Hash       string             // declaration_tokens.content_hash
	Reward     uint64             // declaration_tokens.reward
	IssuedAt   time.Time          // declaration_tokens.issued_at
	ExpiresAt  time.Time          // declaration_tokens.expires_at
	Used       bool               // declaration_tokens.used
	Decision   string             // declaration_tokens.decision
	DecidedBy  string             // declaration_tokens.decided_by
}
