package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/questionnaire"
)

func draft() *questionnaire.Response {
	return &questionnaire.Response{Status: questionnaire.StatusDraft}
}

func validated() *questionnaire.Response {
	return &questionnaire.Response{Status: questionnaire.StatusValidated}
}

func withStatus(status contract.Status) *contract.GeneratedContract {
	return &contract.GeneratedContract{Status: status}
}

func TestDeriveClientState(t *testing.T) {
	tests := []struct {
		name     string
		response *questionnaire.Response
		contract *contract.GeneratedContract
		gallery  *gallery.Gallery
		want     ClientState
	}{
		{name: "nothing yet", want: ClientQuestionnaire},
		{name: "draft answers", response: draft(), want: ClientQuestionnaire},
		{name: "validated answers", response: validated(), want: ClientWaitingContract},
		{name: "contract draft", response: validated(), contract: withStatus(contract.StatusDraft), want: ClientWaitingContract},
		{name: "contract pending", response: validated(), contract: withStatus(contract.StatusPendingSignature), want: ClientSignContract},
		{name: "contract signed", response: validated(), contract: withStatus(contract.StatusSigned), want: ClientCompleted},
		{name: "hidden gallery changes nothing", response: validated(), contract: withStatus(contract.StatusSigned), gallery: &gallery.Gallery{}, want: ClientCompleted},
		{name: "visible gallery dominates", response: validated(), contract: withStatus(contract.StatusSigned), gallery: &gallery.Gallery{Visible: true}, want: ClientGalleryAvailable},
		{name: "visible gallery without contract", gallery: &gallery.Gallery{Visible: true}, want: ClientGalleryAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveClientState(tt.response, tt.contract, tt.gallery))
		})
	}
}

func TestDeriveProviderState(t *testing.T) {
	tests := []struct {
		name     string
		response *questionnaire.Response
		contract *contract.GeneratedContract
		gallery  *gallery.Gallery
		want     ProviderState
	}{
		{name: "fresh link", want: ProviderLinkCreated},
		{name: "draft answers", response: draft(), want: ProviderQuestionnaireDraft},
		{name: "validated answers", response: validated(), want: ProviderQuestionnaireValidated},
		{name: "contract draft", response: validated(), contract: withStatus(contract.StatusDraft), want: ProviderContractDraft},
		{name: "contract ready", response: validated(), contract: withStatus(contract.StatusPendingSignature), want: ProviderContractReady},
		{name: "contract signed", response: validated(), contract: withStatus(contract.StatusSigned), want: ProviderContractSigned},
		{name: "visible gallery dominates", contract: withStatus(contract.StatusSigned), gallery: &gallery.Gallery{Visible: true}, want: ProviderGalleryVisible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveProviderState(tt.response, tt.contract, tt.gallery))
		})
	}
}

// Derivation must not mutate its inputs.
func TestDeriveIsPure(t *testing.T) {
	response := validated()
	c := withStatus(contract.StatusPendingSignature)
	g := &gallery.Gallery{Visible: false}

	first := DeriveClientState(response, c, g)
	second := DeriveClientState(response, c, g)

	assert.Equal(t, first, second)
	assert.Equal(t, questionnaire.StatusValidated, response.Status)
	assert.Equal(t, contract.StatusPendingSignature, c.Status)
	assert.False(t, g.Visible)
}
