package renderer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `# Object
This agreement covers the photographic services described below.

## Parties
|Provider|Atelier Lumen|
|Client|Dupont|

# Obligations
- deliver the gallery within 30 days
- retain raw files for one year

*Both parties accept these terms.*
---
`

func TestRenderContractProducesPDF(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RenderContract(context.Background(), sampleContract, 1)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(result.Bytes), "%PDF-"))
	assert.GreaterOrEqual(t, result.PageCount, 1)
	assert.Equal(t, 1, result.Version)

	sum := sha256.Sum256(result.Bytes)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.Hash)
}

func TestRenderContractPaginatesLongContent(t *testing.T) {
	engine := NewEngine()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("# Section\n")
		b.WriteString(strings.Repeat("A reasonably long sentence that wraps across the content width. ", 6))
		b.WriteString("\n\n")
	}

	result, err := engine.RenderContract(context.Background(), b.String(), 1)
	require.NoError(t, err)
	assert.Greater(t, result.PageCount, 1)
}

func TestRenderAttestationAddsPage(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	plain, err := engine.RenderContract(ctx, sampleContract, 1)
	require.NoError(t, err)

	att := Attestation{
		SignerName:   "Dupont",
		SignerRole:   "client",
		SignedAt:     time.Now(),
		ReferenceID:  "ref-123",
		DocumentHash: plain.Hash,
	}
	signed, err := engine.RenderAttestation(ctx, sampleContract, att, 2)
	require.NoError(t, err)

	assert.Equal(t, plain.PageCount+1, signed.PageCount)
	assert.NotEqual(t, plain.Hash, signed.Hash)
}

func TestDecodeSignatureImage(t *testing.T) {
	img, err := DecodeSignatureImage("")
	require.NoError(t, err)
	assert.Nil(t, img)

	_, err = DecodeSignatureImage("data:image/jpeg;base64,xxxx")
	assert.Error(t, err)

	img, err = DecodeSignatureImage("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), img)
}
