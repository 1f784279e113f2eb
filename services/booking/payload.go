package booking

import (
	"fmt"
	"time"

	"labbook/models"
)

const (
	countryCode = "+91"
	ageType     = "year"
)

var testIDKeys = []string{"testId", "testID", "testCode"}

func slotSelection(date, clock string) models.SlotSelection {
	return models.SlotSelection{Date: date, Time: clock}
}

// providerTestID picks the provider's identifier from the line item metadata,
// falling back to the route.
func providerTestID(item models.CartLineItem) string {
	for _, k := range testIDKeys {
		v, ok := item.BasicInfo[k]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		default:
			return fmt.Sprint(id)
		}
	}
	return item.Route.String()
}

// PayloadInput gathers everything an appointment payload is built from.
type PayloadInput struct {
	Draft       models.BookingDraft
	Items       []models.CartLineItem
	Totals      models.CartTotals
	Start       time.Time
	End         time.Time
	OrderNumber string
	BilledAt    time.Time
	Clinic      *models.Clinic
}

// BuildPayload maps the draft and the whole cart to the provider's appointment
// body. The home-collection block is only set for home pickup.
func BuildPayload(in PayloadInput) models.AppointmentPayload {
	d := in.Draft

	paymentType := string(d.PaymentMethod)
	tests := make([]models.BillTest, 0, len(in.Items))
	for _, item := range in.Items {
		tests = append(tests, models.BillTest{
			TestID:   providerTestID(item),
			TestName: item.Title,
			Quantity: item.Quantity,
			Amount:   item.DiscountedPrice.Mul(item.Quantity),
		})
	}

	p := models.AppointmentPayload{
		CountryCode:    countryCode,
		Mobile:         NormalizePhone(d.Phone),
		Email:          d.Email,
		Designation:    designation(string(d.Gender)),
		FullName:       d.Name,
		Age:            AgeNumber(d.Age),
		AgeType:        ageType,
		Gender:         string(d.Gender),
		DOB:            d.DOB,
		Area:           d.Area,
		City:           d.City,
		Pincode:        d.Pincode,
		CollectionType: string(d.CollectionMethod),
		StartDate:      FormatOffset(in.Start),
		EndDate:        FormatOffset(in.End),
		BillDetails: models.BillDetails{
			BillDate:       FormatOffset(in.BilledAt),
			OrderNumber:    in.OrderNumber,
			TotalAmount:    in.Totals.Total,
			OriginalAmount: in.Totals.OriginalTotal,
			Discount:       in.Totals.Savings,
			TestList:       tests,
			PaymentList: []models.BillPayment{{
				PaymentType:   paymentType,
				PaymentAmount: in.Totals.Total,
			}},
		},
	}

	switch d.CollectionMethod {
	case models.CollectionHome:
		hc := &models.HomeCollection{Address: d.Address}
		if d.SelectedLocation != nil {
			hc.Latitude = d.SelectedLocation.Lat
			hc.Longitude = d.SelectedLocation.Lng
		}
		p.HomeCollection = hc
	case models.CollectionClinic:
		if in.Clinic != nil {
			p.Centre = &models.CentreVisit{ID: in.Clinic.ID, Name: in.Clinic.Name, Address: in.Clinic.Address}
		}
	}
	return p
}
