package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/revshare"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Recipient is one registry entry.
type Recipient struct {
	Address string `json:"address"`
	Share   uint64 `json:"share"`
}

// RecipientsResponse lists the registry in payout order.
type RecipientsResponse struct {
	Owner       string      `json:"owner,omitempty"`
	TotalShares uint64      `json:"total_shares"`
	MaxShares   uint64      `json:"max_shares"`
	Recipients  []Recipient `json:"recipients"`
}

// RecipientResponse describes one address.
type RecipientResponse struct {
	Address string `json:"address"`
	Member  bool   `json:"member"`
	Share   uint64 `json:"share"`
}

// BalanceResponse is an asset's undistributed balance.
type BalanceResponse struct {
	Asset   string `json:"asset"`
	Balance uint64 `json:"balance"`
}

// TotalReleasedResponse is an asset's cumulative payout.
type TotalReleasedResponse struct {
	Asset         string `json:"asset"`
	TotalReleased uint64 `json:"total_released"`
}

// ReleasedResponse is one recipient's cumulative payout and what the next
// round would pay it.
type ReleasedResponse struct {
	Asset    string `json:"asset"`
	Address  string `json:"address"`
	Released uint64 `json:"released"`
	Pending  uint64 `json:"pending"`
}

type handler struct {
	q Querier
}

func (h *handler) recipients(w http.ResponseWriter, _ *http.Request) {
	entries := h.q.Recipients()
	resp := RecipientsResponse{
		TotalShares: h.q.TotalShares(),
		MaxShares:   revshare.MaxShares,
		Recipients:  make([]Recipient, len(entries)),
	}
	if owner := h.q.Owner(); !owner.IsZero() {
		resp.Owner = owner.String()
	}
	for i, e := range entries {
		resp.Recipients[i] = Recipient{Address: e.Address.String(), Share: e.Share}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) recipient(w http.ResponseWriter, r *http.Request) {
	id, err := revshare.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, RecipientResponse{
		Address: id.String(),
		Member:  h.q.IsMember(id),
		Share:   h.q.ShareOf(id),
	})
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	id := ledger.AssetID(mux.Vars(r)["asset"])
	bal, err := h.q.AssetBalance(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Asset: string(id), Balance: bal})
}

func (h *handler) totalReleased(w http.ResponseWriter, r *http.Request) {
	id := ledger.AssetID(mux.Vars(r)["asset"])
	if err := id.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, TotalReleasedResponse{Asset: string(id), TotalReleased: h.q.TotalReleasedFor(id)})
}

func (h *handler) released(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := ledger.AssetID(vars["asset"])
	who, err := revshare.ParseAddress(vars["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pending, err := h.q.Pending(r.Context(), id, who)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ReleasedResponse{
		Asset:    string(id),
		Address:  who.String(),
		Released: h.q.Released(id, who),
		Pending:  pending,
	})
}
