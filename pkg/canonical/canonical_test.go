package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalStable_KeyOrderIndependent(t *testing.T) {
	a := map[string]interface{}{"beneficiary": "Acme", "tonnes": float64(30), "purpose": "carbon_neutral_company"}
	b := map[string]interface{}{"purpose": "carbon_neutral_company", "tonnes": float64(30), "beneficiary": "Acme"}

	ea, err := MarshalStable(a)
	require.NoError(t, err)
	eb, err := MarshalStable(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestDigest_Deterministic(t *testing.T) {
	snapshot := map[string]interface{}{
		"retirement_id": "R1",
		"credits":       []interface{}{map[string]interface{}{"id": "C1", "quantity": float64(30)}},
	}

	d1, err := Digest(snapshot)
	require.NoError(t, err)
	d2, err := Digest(snapshot)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestDigest_SensitiveToContent(t *testing.T) {
	d1, err := Digest(map[string]interface{}{"tonnes": float64(30)})
	require.NoError(t, err)
	d2, err := Digest(map[string]interface{}{"tonnes": float64(31)})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestMarshalStable_Structs(t *testing.T) {
	type snap struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
	}
	b, err := MarshalStable(snap{ID: "C1", Amount: 100})
	require.NoError(t, err)
	assert.Contains(t, string(b), "C1")
}
