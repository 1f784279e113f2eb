package booking

import (
	"context"
	"errors"
	"testing"

	"labbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var confirmed = &models.ProviderResponse{Data: models.ProviderData{
	Code:          "200",
	PatientID:     "P-77",
	BillID:        "B-12",
	AppointmentID: "A-9",
}}

func TestSubmit_HomeWithoutAddressMakesNoCall(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	_, err := f.drafts.Update(context.Background(), testSession, models.DraftUpdate{Address: strPtr("")})
	require.NoError(t, err)

	_, err = f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})

	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, "Address is required for home collection", fieldErrs["address"])
	assert.Zero(t, f.provider.calls())
	assert.Empty(t, f.gateway.envelopes)

	draft, err := f.drafts.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Contains(t, draft.Errors, "address")
	assert.Equal(t, 1, f.carts.Open(context.Background(), testSession).Len())
}

func TestSubmit_RequiresDateAndTime(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	_, err := f.drafts.SelectDate(context.Background(), testSession, "2024-06-18")
	require.NoError(t, err)

	_, err = f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrSlotRequired)
	assert.Zero(t, f.provider.calls())
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)

	_, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmit_SuspendsUntilSignIn(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.provider.resp = confirmed

	_, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, f.provider.calls())
	assert.True(t, f.mr.Exists(pendingKey(testSession)))

	outcome, err := f.orch.Resume(context.Background(), testSession, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConfirmed, outcome.Status)
	assert.Equal(t, &models.Confirmation{PatientID: "P-77", BillID: "B-12", AppointmentID: "A-9"}, outcome.Confirmation)
	assert.Equal(t, 1, f.provider.calls())
	assert.False(t, f.mr.Exists(pendingKey(testSession)))
}

func TestResume_NothingPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Resume(context.Background(), testSession, "c1")
	assert.ErrorIs(t, err, ErrNothingPending)
}

func TestSubmit_CashSuccessClearsState(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.provider.resp = confirmed

	outcome, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", outcome.BookingID)

	require.Len(t, f.provider.payloads, 1)
	p := f.provider.payloads[0]
	assert.Equal(t, "2024-06-17T09:00:00+05:30", p.StartDate)
	assert.Equal(t, "2024-06-17T10:00:00+05:30", p.EndDate)
	assert.Equal(t, "9876543210", p.Mobile)
	assert.Equal(t, "Ms.", p.Designation)
	assert.Equal(t, 24, p.Age)
	require.NotNil(t, p.HomeCollection)
	assert.Equal(t, "12 Hill Road, Bandra West", p.HomeCollection.Address)
	assert.Equal(t, 19.05, p.HomeCollection.Latitude)
	assert.Equal(t, 72.83, p.HomeCollection.Longitude)
	assert.Nil(t, p.Centre)
	require.Len(t, p.BillDetails.TestList, 1)
	assert.Equal(t, "LP01", p.BillDetails.TestList[0].TestID)
	assert.True(t, p.BillDetails.TotalAmount.EqualInt(500))
	assert.Equal(t, "cash", p.BillDetails.PaymentList[0].PaymentType)

	assert.Zero(t, f.carts.Open(context.Background(), testSession).Len())
	draft, err := f.drafts.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Empty(t, draft.Name)

	require.Len(t, f.records.records, 1)
	rec := f.records.records[0]
	assert.Equal(t, models.BookingStatusConfirmed, rec.Status)
	assert.Equal(t, "c1", rec.CustomerID)
	assert.Equal(t, []string{"/lab-test/lipid-profile"}, rec.Routes)
	assert.Equal(t, 500.0, rec.Total)

	require.Len(t, f.leads.leads, 1)
	assert.Equal(t, models.Lead{FirstName: "Asha", LastName: "Rao", Mobile: "9876543210", Email: "asha@example.com", Address: "12 Hill Road, Bandra West"}, f.leads.leads[0])
	assert.False(t, f.mr.Exists(lockKey(testSession)))
}

func TestSubmit_ProviderFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.provider.err = newProviderError("Slot no longer available", errors.New("status 409"))

	_, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Slot no longer available", perr.Message)
	assert.Equal(t, 1, f.carts.Open(context.Background(), testSession).Len())
	draft, err := f.drafts.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", draft.Name)
	assert.Equal(t, "09:00", draft.SelectedTime)
	assert.Empty(t, f.records.records)
	assert.False(t, f.mr.Exists(lockKey(testSession)))
}

func TestSubmit_ResponseWithoutIdentifiersFails(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.provider.resp = &models.ProviderResponse{}

	_, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, genericProviderMessage, perr.Message)
	assert.Equal(t, 1, f.carts.Open(context.Background(), testSession).Len())
}

func TestSubmit_OnlineRedirect(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.gateway.resp = &models.ProviderResponse{Data: models.ProviderData{PaymentURL: "https://pay.example/abc"}}

	outcome, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1", PaymentMethod: models.PaymentOnline})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRedirect, outcome.Status)
	assert.Equal(t, "https://pay.example/abc", outcome.PaymentURL)
	assert.Nil(t, outcome.Confirmation)
	assert.Zero(t, f.provider.calls())

	require.Len(t, f.gateway.envelopes, 1)
	assert.Equal(t, "home", f.gateway.envelopes[0].AppointmentType)
	assert.Equal(t, "online", f.gateway.envelopes[0].AppointmentData.BillDetails.PaymentList[0].PaymentType)
	assert.Zero(t, f.carts.Open(context.Background(), testSession).Len())
	require.Len(t, f.records.records, 1)
	assert.Equal(t, models.BookingStatusPaymentPending, f.records.records[0].Status)
}

func TestSubmit_OnlineWithoutURLFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.gateway.resp = confirmed

	outcome, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1", PaymentMethod: models.PaymentOnline})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConfirmed, outcome.Status)
	assert.Equal(t, "A-9", outcome.Confirmation.AppointmentID)
}

func TestSubmit_ClinicPayload(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	f.provider.resp = confirmed
	_, _, err := f.drafts.SelectClinic(context.Background(), testSession, "bandra")
	require.NoError(t, err)

	_, err = f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	require.NoError(t, err)

	p := f.provider.payloads[0]
	assert.Nil(t, p.HomeCollection)
	require.NotNil(t, p.Centre)
	assert.Equal(t, "bandra", p.Centre.ID)
	assert.Equal(t, "clinic", p.CollectionType)
}

func TestSubmit_InFlightGuard(t *testing.T) {
	f := newFixture(t)
	f.fillDraft(t)
	f.addItem(t)
	require.NoError(t, f.mr.Set(lockKey(testSession), "other"))

	_, err := f.orch.Submit(context.Background(), CheckoutRequest{SessionID: testSession, CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Zero(t, f.provider.calls())

	val, err := f.mr.Get(lockKey(testSession))
	require.NoError(t, err)
	assert.Equal(t, "other", val)
}
