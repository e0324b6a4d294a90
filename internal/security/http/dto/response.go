// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"
	"encoding/hex"
	"time"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
)

// ProtectResponse represents a sealed payload in API responses.
type ProtectResponse struct {
	Envelope    string `json:"envelope"`
	Ref         string `json:"ref"`
	KeyHandleID string `json:"key_handle_id"`
}

// MapProtectOutputToResponse converts a protect result to an API response.
// The envelope bytes are base64-encoded for transport.
func MapProtectOutputToResponse(output *securityUseCase.ProtectOutput) ProtectResponse {
	return ProtectResponse{
		Envelope:    base64.StdEncoding.EncodeToString(output.Envelope),
		Ref:         output.Ref,
		KeyHandleID: output.KeyHandleID,
	}
}

// RevealResponse carries released plaintext.
// SECURITY: The Value field contains plaintext. Must be transmitted over
// HTTPS in production.
type RevealResponse struct {
	Value string `json:"value"`
}

// MapPlaintextToRevealResponse base64-encodes released plaintext for transport.
func MapPlaintextToRevealResponse(plaintext []byte) RevealResponse {
	return RevealResponse{
		Value: base64.StdEncoding.EncodeToString(plaintext),
	}
}

// ApprovalResponse represents a single approval in API responses.
type ApprovalResponse struct {
	Approver   string    `json:"approver"`
	ApprovedAt time.Time `json:"approved_at"`
}

// EscrowRequestResponse represents a break-glass request in API responses.
// The target envelope bytes are excluded; callers reference the target by ref.
type EscrowRequestResponse struct {
	ID            string             `json:"id"`
	Requester     string             `json:"requester"`
	Justification string             `json:"justification"`
	TargetRef     string             `json:"target_ref"`
	PolicyTag     string             `json:"policy_tag"`
	Threshold     int                `json:"threshold"`
	State         string             `json:"state"`
	Approvals     []ApprovalResponse `json:"approvals"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// MapEscrowRequestToResponse converts a domain request to an API response.
func MapEscrowRequestToResponse(request *escrowDomain.Request) EscrowRequestResponse {
	approvals := make([]ApprovalResponse, 0, len(request.Approvals))
	for _, approval := range request.Approvals {
		approvals = append(approvals, ApprovalResponse{
			Approver:   approval.Approver,
			ApprovedAt: approval.ApprovedAt,
		})
	}

	return EscrowRequestResponse{
		ID:            request.ID.String(),
		Requester:     request.Requester,
		Justification: request.Justification,
		TargetRef:     request.TargetRef,
		PolicyTag:     request.PolicyTag,
		Threshold:     request.Threshold,
		State:         string(request.State),
		Approvals:     approvals,
		CreatedAt:     request.CreatedAt,
		ExpiresAt:     request.ExpiresAt,
		UpdatedAt:     request.UpdatedAt,
	}
}

// ListEscrowResponse represents a paginated list of break-glass requests.
type ListEscrowResponse struct {
	Data []EscrowRequestResponse `json:"data"`
}

// MapEscrowRequestsToListResponse converts a slice of domain requests to a
// list response.
func MapEscrowRequestsToListResponse(requests []*escrowDomain.Request) ListEscrowResponse {
	data := make([]EscrowRequestResponse, 0, len(requests))
	for _, request := range requests {
		data = append(data, MapEscrowRequestToResponse(request))
	}

	return ListEscrowResponse{
		Data: data,
	}
}

// EscrowStatsResponse summarizes break-glass requests by state.
type EscrowStatsResponse struct {
	ByState map[string]uint64 `json:"by_state"`
	Total   uint64            `json:"total"`
}

// MapEscrowStatsToResponse converts domain stats to an API response.
func MapEscrowStatsToResponse(stats *escrowDomain.Stats) EscrowStatsResponse {
	byState := make(map[string]uint64, len(stats.ByState))
	for state, count := range stats.ByState {
		byState[string(state)] = count
	}

	return EscrowStatsResponse{
		ByState: byState,
		Total:   stats.Total,
	}
}

// RedeemEscrowResponse carries the released plaintext and the redeemed
// request.
// SECURITY: The Value field contains plaintext. Must be transmitted over
// HTTPS in production.
type RedeemEscrowResponse struct {
	Value   string                `json:"value"`
	Request EscrowRequestResponse `json:"request"`
}

// MapRedemptionToResponse converts a redemption result to an API response.
func MapRedemptionToResponse(plaintext []byte, request *escrowDomain.Request) RedeemEscrowResponse {
	return RedeemEscrowResponse{
		Value:   base64.StdEncoding.EncodeToString(plaintext),
		Request: MapEscrowRequestToResponse(request),
	}
}

// AuditEntryResponse represents a ledger entry in API responses.
// Hashes are hex-encoded so external verifiers can recompute the chain.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	SequenceNo uint64    `json:"sequence_no"`
	Timestamp  time.Time `json:"timestamp"`
	Principal  string    `json:"principal"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	TargetRef  string    `json:"target_ref,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	PriorHash  string    `json:"prior_hash"`
	EntryHash  string    `json:"entry_hash"`
}

// MapAuditEntryToResponse converts a domain entry to an API response.
func MapAuditEntryToResponse(entry *auditDomain.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         entry.ID.String(),
		SequenceNo: entry.SequenceNo,
		Timestamp:  entry.Timestamp,
		Principal:  entry.Principal,
		Operation:  string(entry.Operation),
		Outcome:    string(entry.Outcome),
		TargetRef:  entry.TargetRef,
		Detail:     entry.Detail,
		PriorHash:  hex.EncodeToString(entry.PriorHash),
		EntryHash:  hex.EncodeToString(entry.EntryHash),
	}
}

// ListAuditResponse represents a paginated list of ledger entries.
type ListAuditResponse struct {
	Data []AuditEntryResponse `json:"data"`
}

// MapAuditEntriesToListResponse converts a slice of domain entries to a list
// response.
func MapAuditEntriesToListResponse(entries []*auditDomain.Entry) ListAuditResponse {
	data := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapAuditEntryToResponse(entry))
	}

	return ListAuditResponse{
		Data: data,
	}
}

// AuditReportResponse summarizes ledger activity.
type AuditReportResponse struct {
	TotalEntries  uint64            `json:"total_entries"`
	FirstSequence uint64            `json:"first_sequence"`
	LastSequence  uint64            `json:"last_sequence"`
	ByOperation   map[string]uint64 `json:"by_operation"`
	ByOutcome     map[string]uint64 `json:"by_outcome"`
	ByPrincipal   map[string]uint64 `json:"by_principal"`
}

// MapAuditReportToResponse converts a domain report to an API response.
func MapAuditReportToResponse(report *auditDomain.Report) AuditReportResponse {
	byOperation := make(map[string]uint64, len(report.ByOperation))
	for operation, count := range report.ByOperation {
		byOperation[string(operation)] = count
	}

	byOutcome := make(map[string]uint64, len(report.ByOutcome))
	for outcome, count := range report.ByOutcome {
		byOutcome[string(outcome)] = count
	}

	return AuditReportResponse{
		TotalEntries:  report.TotalEntries,
		FirstSequence: report.FirstSequence,
		LastSequence:  report.LastSequence,
		ByOperation:   byOperation,
		ByOutcome:     byOutcome,
		ByPrincipal:   report.ByPrincipal,
	}
}

// VerifyChainResponse reports the result of a ledger integrity check.
type VerifyChainResponse struct {
	Status   string `json:"status"`
	Verified uint64 `json:"verified"`
}
