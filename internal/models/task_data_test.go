package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTaskData_PicksShapeByType(t *testing.T) {
	data, err := DecodeTaskData(TaskTypeQualifyLead, []byte(`{"budget_max":15000000,"payment_method":"credit"}`))
	require.NoError(t, err)
	q, ok := data.(*QualificationData)
	require.True(t, ok)
	require.NotNil(t, q.BudgetMax)
	assert.Equal(t, int64(15000000), *q.BudgetMax)
	assert.Equal(t, "credit", q.PaymentMethod)
	assert.Nil(t, q.BudgetMin)
}

func TestDecodeTaskData_EmptyAndNull(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null")} {
		data, err := DecodeTaskData(TaskTypeConfirmDeal, raw)
		require.NoError(t, err)
		assert.Equal(t, &ConfirmDealData{}, data)
	}
}

func TestDecodeTaskData_Rejects(t *testing.T) {
	_, err := DecodeTaskData(TaskTypeSendOffers, []byte(`{"budget_max":1}`))
	assert.Error(t, err)

	_, err = DecodeTaskData("wash_car", nil)
	assert.Error(t, err)
}

func TestEncodeTaskData_NilIsEmptyObject(t *testing.T) {
	raw, err := EncodeTaskData(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestMergeTaskData_KeepsEarlierFields(t *testing.T) {
	current := &CarPreferencesData{PreferredBrands: []string{"Toyota"}, BodyType: "sedan"}

	merged, err := MergeTaskData(TaskTypeCarPreferences, current, []byte(`{"fuel_type":"hybrid","body_type":"suv"}`))
	require.NoError(t, err)
	got := merged.(*CarPreferencesData)
	assert.Equal(t, []string{"Toyota"}, got.PreferredBrands)
	assert.Equal(t, "suv", got.BodyType)
	assert.Equal(t, "hybrid", got.FuelType)

	assert.Equal(t, "sedan", current.BodyType)
}

func TestMergeTaskData_RejectsForeignFields(t *testing.T) {
	_, err := MergeTaskData(TaskTypeCustom, &CustomTaskData{}, []byte(`{"reached":true}`))
	assert.Error(t, err)
}
