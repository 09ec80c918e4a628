// Package workflow derives the engagement state shown to each side from a
// snapshot of the questionnaire response, the contract and the gallery. The
// derivation is side-effect-free: it reads the three optional inputs and
// nothing else, so any caller holding a consistent snapshot computes the same
// state.
package workflow

import (
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/questionnaire"
)

// ClientState is what the external party sees in the portal.
type ClientState string

const (
	ClientQuestionnaire    ClientState = "questionnaire"
	ClientWaitingContract  ClientState = "waiting_contract"
	ClientSignContract     ClientState = "sign_contract"
	ClientCompleted        ClientState = "completed"
	ClientGalleryAvailable ClientState = "gallery_available"
)

// ProviderState is the finer-grained view shown on the provider dashboard.
type ProviderState string

const (
	ProviderLinkCreated            ProviderState = "link_created"
	ProviderQuestionnaireDraft     ProviderState = "questionnaire_draft"
	ProviderQuestionnaireValidated ProviderState = "questionnaire_validated"
	ProviderContractDraft          ProviderState = "contract_draft"
	ProviderContractReady          ProviderState = "contract_ready"
	ProviderContractSigned         ProviderState = "contract_signed"
	ProviderGalleryVisible         ProviderState = "gallery_visible"
)

// DeriveClientState computes the portal state. Later checks override earlier
// ones: the questionnaire gives the base state, the contract status overrides
// it, and a published gallery overrides everything.
func DeriveClientState(response *questionnaire.Response, c *contract.GeneratedContract, g *gallery.Gallery) ClientState {
	state := ClientQuestionnaire
	if response != nil && response.IsValidated() {
		state = ClientWaitingContract
	}
	if c != nil {
		switch c.Status {
		case contract.StatusDraft:
			state = ClientWaitingContract
		case contract.StatusPendingSignature:
			state = ClientSignContract
		case contract.StatusSigned:
			state = ClientCompleted
		}
	}
	if g != nil && g.Visible {
		state = ClientGalleryAvailable
	}
	return state
}

// DeriveProviderState computes the dashboard state with the same precedence
// as DeriveClientState.
func DeriveProviderState(response *questionnaire.Response, c *contract.GeneratedContract, g *gallery.Gallery) ProviderState {
	state := ProviderLinkCreated
	if response != nil {
		if response.IsValidated() {
			state = ProviderQuestionnaireValidated
		} else {
			state = ProviderQuestionnaireDraft
		}
	}
	if c != nil {
		switch c.Status {
		case contract.StatusDraft:
			state = ProviderContractDraft
		case contract.StatusPendingSignature:
			state = ProviderContractReady
		case contract.StatusSigned:
			state = ProviderContractSigned
		}
	}
	if g != nil && g.Visible {
		state = ProviderGalleryVisible
	}
	return state
}
