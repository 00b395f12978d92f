package grid

// ISBN13 expands a full ten-digit position into its ISBN-13 with check
// digit. The leading position digit selects the bookland prefix: 0 means
// 978, 1 means 979; the remaining nine digits carry over unchanged.
// Positions outside the two assigned prefixes have no ISBN and return "".
func ISBN13(position string) string {
	if len(position) != 10 {
		return ""
	}
	var prefix string
	switch position[0] {
	case '0':
		prefix = "978"
	case '1':
		prefix = "979"
	default:
		return ""
	}

	body := prefix + position[1:]
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if d < 0 || d > 9 {
			return ""
		}
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return body + string(byte('0'+check))
}
