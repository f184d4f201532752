// Package identity validates Turkish national identity numbers (TCKN)
// and tax numbers (VKN) via their checksum algorithms.
package identity

// ValidateNationalID reports whether s is a valid 11-digit national
// identity number. The ninth check digit must equal
// (7*sumOdd - sumEven) mod 10 and the tenth must equal
// (sumOdd + sumEven + d9) mod 10, where sumOdd covers digits 0,2,4,6,8
// and sumEven covers digits 1,3,5,7.
func ValidateNationalID(s string) bool {
	d, ok := digits(s, 11)
	if !ok {
		return false
	}

	sumOdd := d[0] + d[2] + d[4] + d[6] + d[8]
	sumEven := d[1] + d[3] + d[5] + d[7]

	check9 := (7*sumOdd - sumEven) % 10
	if check9 < 0 {
		check9 += 10
	}
	if d[9] != check9 {
		return false
	}
	return d[10] == (sumOdd+sumEven+d[9])%10
}

// ValidateTaxID reports whether s is a valid 10-digit tax number. The
// weighted sum of the first nine digits mod 11 yields a check digit c;
// the final digit must be c when c < 2 and 11-c otherwise.
func ValidateTaxID(s string) bool {
	d, ok := digits(s, 10)
	if !ok {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (10 - i)
	}

	check := sum % 11
	if check < 2 {
		return d[9] == check
	}
	return d[9] == 11-check
}

// digits parses s into exactly n decimal digits, rejecting anything else.
func digits(s string, n int) ([]int, bool) {
	if len(s) != n {
		return nil, false
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, false
		}
		out[i] = int(c - '0')
	}
	return out, true
}
