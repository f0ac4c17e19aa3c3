package postgres

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"

	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

// ==================== Contract models ====================

type contractModel struct {
	grove.BaseModel `grove:"table:dailymood_contracts"`

	ID        string    `grove:"id,pk"`
	Owner     string    `grove:"owner"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toContractModel(d *deployment.Deployment) *contractModel {
	return &contractModel{
		ID:        d.ID.String(),
		Owner:     types.AddressKey(d.Owner),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func fromContractModel(m *contractModel) (*deployment.Deployment, error) {
	contractID, err := id.ParseContractID(m.ID)
	if err != nil {
		return nil, err
	}
	return &deployment.Deployment{
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     contractID,
		Owner:  common.HexToAddress(m.Owner),
	}, nil
}

// ==================== Allowlist models ====================

type memberModel struct {
	grove.BaseModel `grove:"table:dailymood_allowed"`

	ID         string    `grove:"id,pk"`
	ContractID string    `grove:"contract_id"`
	Address    string    `grove:"address"`
	Seq        int64     `grove:"seq"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toMemberModel(m *allowlist.Member) *memberModel {
	return &memberModel{
		ID:         m.ID.String(),
		ContractID: m.ContractID.String(),
		Address:    types.AddressKey(m.Address),
		Seq:        m.Seq,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func fromMemberModel(m *memberModel) (*allowlist.Member, error) {
	memberID, err := id.ParseMemberID(m.ID)
	if err != nil {
		return nil, err
	}
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}
	return &allowlist.Member{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         memberID,
		ContractID: contractID,
		Address:    common.HexToAddress(m.Address),
		Seq:        m.Seq,
	}, nil
}

// ==================== Mood models ====================

type moodModel struct {
	grove.BaseModel `grove:"table:dailymood_moods"`

	ID         string    `grove:"id,pk"`
	ContractID string    `grove:"contract_id"`
	Account    string    `grove:"account"`
	Mood       string    `grove:"mood"`
	Timestamp  int64     `grove:"timestamp"`
	Seq        int64     `grove:"seq"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toMoodModel(e *mood.Entry) *moodModel {
	return &moodModel{
		ID:         e.ID.String(),
		ContractID: e.ContractID.String(),
		Account:    types.AddressKey(e.Account),
		Mood:       e.Text,
		Timestamp:  e.Timestamp,
		Seq:        e.Seq,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func fromMoodModel(m *moodModel) (*mood.Entry, error) {
	moodID, err := id.ParseMoodID(m.ID)
	if err != nil {
		return nil, err
	}
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}
	return &mood.Entry{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         moodID,
		ContractID: contractID,
		Account:    common.HexToAddress(m.Account),
		Text:       m.Mood,
		Timestamp:  m.Timestamp,
		Seq:        m.Seq,
	}, nil
}
