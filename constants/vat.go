package constants

// VATBrackets holds the Portuguese statutory VAT rates (percent) that noisy
// extraction values are snapped onto.
var VATBrackets = []int64{23, 13, 6}

// VATSnapTolerance is the largest absolute distance (in percentage points) at
// which a parsed rate is still snapped onto a bracket.
const VATSnapTolerance = 1.0
