package location

import (
	"errors"

	"labbook/models"
)

var ErrUnknownClinic = errors.New("unknown clinic")

var clinics = []models.Clinic{
	{
		ID:       "andheri",
		Name:     "Andheri West Centre",
		Address:  "Shop 4, Lokhandwala Complex, Andheri West, Mumbai 400053",
		Area:     "Andheri West",
		City:     "Mumbai",
		Pincode:  "400053",
		Location: models.LatLng{Lat: 19.1364, Lng: 72.8296},
	},
	{
		ID:       "bandra",
		Name:     "Bandra Centre",
		Address:  "12 Hill Road, Bandra West, Mumbai 400050",
		Area:     "Bandra West",
		City:     "Mumbai",
		Pincode:  "400050",
		Location: models.LatLng{Lat: 19.0544, Lng: 72.8347},
	},
	{
		ID:       "thane",
		Name:     "Thane Centre",
		Address:  "Ground Floor, Eastern Express Highway, Thane West 400601",
		Area:     "Thane West",
		City:     "Thane",
		Pincode:  "400601",
		Location: models.LatLng{Lat: 19.2183, Lng: 72.9781},
	},
}

// Clinics returns the physical collection centres.
func Clinics() []models.Clinic {
	out := make([]models.Clinic, len(clinics))
	copy(out, clinics)
	return out
}

func FindClinic(id string) (models.Clinic, error) {
	for _, c := range clinics {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Clinic{}, ErrUnknownClinic
}
