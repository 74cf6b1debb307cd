// Package posting turns the post-an-apartment form into a stored listing.
package posting

// Catalogue is the fixed set of choices offered by the posting form.
type Catalogue struct {
	Buildings  []string `json:"buildings"`
	LeaseTypes []string `json:"leaseTypes"`
	Amenities  []string `json:"amenities"`
}

// Choices returns the posting catalogue.
func Choices() Catalogue {
	return Catalogue{
		Buildings:  []string{"Sunshine Residency", "Maple Heights", "Ocean View"},
		LeaseTypes: []string{"Long term (6+ months)", "Short term", "Both"},
		Amenities: []string{
			"Gym/Fitness Center",
			"Swimming Pool",
			"Park",
			"Visitors Parking",
			"Power Backup",
			"Garbage Disposal",
			"Private Lawn",
			"Water Heater",
			"Plant Security System",
			"Laundry Service",
			"Fire Alarm",
			"Club House",
		},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
