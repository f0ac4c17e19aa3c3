package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

const contractKey = "dailymood.contract"

var errOwnLogOnly = errors.New("updates apply to the caller's own log")

type deployRequest struct {
	Owner   string   `json:"owner"`
	Allowed []string `json:"allowed"`
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
}

type moodRequest struct {
	Mood string `json:"mood"`
}

// ContractView describes a contract.
type ContractView struct {
	ID            string        `json:"id"`
	Owner         types.Address `json:"owner"`
	AllowedLength int           `json:"allowed_length"`
}

// MoodView is one entry at its current position.
type MoodView struct {
	Account   types.Address `json:"account"`
	Index     int           `json:"index"`
	Mood      string        `json:"mood"`
	Timestamp int64         `json:"timestamp"`
}

func moodView(e *mood.Entry, index int) MoodView {
	return MoodView{Account: e.Account, Index: index, Mood: e.Text, Timestamp: e.Timestamp}
}

// attach resolves :contract and stores the handle on the context.
func (s *Server) attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, err := id.ParseContractID(c.Param("contract"))
		if err != nil {
			s.fail(c, invalid("contract", err))
			return
		}
		contract, err := s.ledger.Attach(c.Request.Context(), cid)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(contractKey, contract)
		c.Next()
	}
}

func contractFrom(c *gin.Context) *dailymood.Contract {
	v, _ := c.Get(contractKey)
	contract, _ := v.(*dailymood.Contract)
	return contract
}

func (s *Server) deploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid("body", err))
		return
	}

	owner := callerFrom(c)
	if req.Owner != "" {
		parsed, err := types.ParseAddress(req.Owner)
		if err != nil {
			s.fail(c, invalid("owner", err))
			return
		}
		owner = parsed
	}

	allowed := []types.Address{types.ZeroAddress}
	if req.Allowed != nil {
		parsed, err := dailymood.ParseAddresses(req.Allowed)
		if err != nil {
			s.fail(c, err)
			return
		}
		allowed = parsed
	}

	contract, err := s.ledger.Deploy(c.Request.Context(), owner, allowed)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, ContractView{ID: contract.ID().String(), Owner: owner, AllowedLength: len(allowed)})
}

func (s *Server) describe(c *gin.Context) {
	ctx := c.Request.Context()
	contract := contractFrom(c)

	owner, err := contract.Owner(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	n, err := contract.AllowedAddressLength(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, ContractView{ID: contract.ID().String(), Owner: owner, AllowedLength: n})
}

// ──────────────────────────────────────────────────
// Ownership
// ──────────────────────────────────────────────────

func (s *Server) owner(c *gin.Context) {
	owner, err := contractFrom(c).Owner(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"owner": owner})
}

func (s *Server) transferOwnership(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid("body", err))
		return
	}
	next, err := types.ParseAddress(req.NewOwner)
	if err != nil {
		s.fail(c, invalid("new_owner", err))
		return
	}
	if err := contractFrom(c).TransferOwnership(c.Request.Context(), callerFrom(c), next); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"owner": next})
}

// ──────────────────────────────────────────────────
// Allowlist
// ──────────────────────────────────────────────────

func (s *Server) allowed(c *gin.Context) {
	set, err := contractFrom(c).AllowedAddresses(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"allowed": set, "length": len(set)})
}

func (s *Server) isAllowed(c *gin.Context) {
	addr, err := addressParam(c, "address")
	if err != nil {
		s.fail(c, err)
		return
	}
	allowed, err := contractFrom(c).IsAllowed(c.Request.Context(), addr)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"address": addr, "allowed": allowed})
}

func (s *Server) addAllowed(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid("body", err))
		return
	}
	addr, err := types.ParseAddress(req.Address)
	if err != nil {
		s.fail(c, invalid("address", err))
		return
	}
	if err := contractFrom(c).AddAllowed(c.Request.Context(), callerFrom(c), addr); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"address": addr})
}

func (s *Server) removeAllowed(c *gin.Context) {
	addr, err := addressParam(c, "address")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := contractFrom(c).RemoveAllowed(c.Request.Context(), callerFrom(c), addr); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"address": addr})
}

// ──────────────────────────────────────────────────
// Mood logs
// ──────────────────────────────────────────────────

func (s *Server) pushMood(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid("body", err))
		return
	}
	e, index, err := contractFrom(c).PushMoodIndexed(c.Request.Context(), callerFrom(c), req.Mood)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, moodView(e, index))
}

func (s *Server) moodsLength(c *gin.Context) {
	account, err := addressParam(c, "account")
	if err != nil {
		s.fail(c, err)
		return
	}
	n, err := contractFrom(c).MoodsLength(c.Request.Context(), account)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"account": account, "length": n})
}

func (s *Server) moodByIndex(c *gin.Context) {
	account, index, err := logParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := contractFrom(c).MoodByIndex(c.Request.Context(), account, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, moodView(e, index))
}

// updateMood edits the owner's own log, so :account must be the caller.
// A non-owner is rejected as unauthorized whichever log the path names.
func (s *Server) updateMood(c *gin.Context) {
	account, index, err := logParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	contract := contractFrom(c)
	caller := callerFrom(c)
	if account != caller {
		owner, err := contract.Owner(ctx)
		if err != nil {
			s.fail(c, err)
			return
		}
		if caller != owner {
			s.fail(c, &dailymood.UnauthorizedAccountError{Account: caller, Role: dailymood.RoleOwner})
			return
		}
		s.fail(c, invalid("account", errOwnLogOnly))
		return
	}
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid("body", err))
		return
	}
	e, err := contract.UpdateMoodByIndex(ctx, caller, index, req.Mood)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, moodView(e, index))
}

func (s *Server) removeMood(c *gin.Context) {
	account, index, err := logParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := contractFrom(c).RemoveMoodByIndex(c.Request.Context(), callerFrom(c), account, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, moodView(e, index))
}

func (s *Server) removeMoods(c *gin.Context) {
	account, err := addressParam(c, "account")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := contractFrom(c).RemoveMoods(c.Request.Context(), callerFrom(c), account); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"account": account, "length": 0})
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func invalid(field string, err error) error {
	return dailymood.ValidationError{Field: field, Message: err.Error(), Err: err}
}

func addressParam(c *gin.Context, name string) (types.Address, error) {
	addr, err := types.ParseAddress(c.Param(name))
	if err != nil {
		return types.ZeroAddress, invalid(name, err)
	}
	return addr, nil
}

func logParams(c *gin.Context) (types.Address, int, error) {
	account, err := addressParam(c, "account")
	if err != nil {
		return types.ZeroAddress, 0, err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return types.ZeroAddress, 0, invalid("index", err)
	}
	return account, index, nil
}
