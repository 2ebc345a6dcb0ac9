package dfvfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyChainRejectsUndeclaredIdentifier(t *testing.T) {
	spec, err := New(OS, nil, map[string]interface{}{"location": "/x"})
	require.NoError(t, err)

	kc := NewKeyChain()
	err = kc.SetCredential(spec, "password", []byte("secret"))
	var noSuch *NoSuchCredentialError
	require.ErrorAs(t, err, &noSuch)
}

func TestKeyChainKeyedByComparableNotIdentity(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)
	bdeA, err := New(BDE, rawSpec, nil)
	require.NoError(t, err)

	kc := NewKeyChain()
	require.NoError(t, kc.SetCredential(bdeA, "password", []byte("hunter2")))

	osSpec2, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec2, _ := New(RAW, osSpec2, nil)
	bdeB, _ := New(BDE, rawSpec2, nil)

	require.False(t, bdeA == bdeB)
	got, ok := kc.GetCredential(bdeB, "password")
	require.True(t, ok)
	require.Equal(t, []byte("hunter2"), got)
}

func TestGetAnyCredentialPriorityOrder(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)
	spec, _ := New(BDE, rawSpec, nil)

	kc := NewKeyChain()
	require.NoError(t, kc.SetCredential(spec, "recovery_password", []byte("rp")))

	id, val, ok := kc.GetAnyCredential(spec, "password", "recovery_password")
	require.True(t, ok)
	require.Equal(t, "recovery_password", id)
	require.Equal(t, []byte("rp"), val)
}
