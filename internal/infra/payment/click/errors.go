package click

// Negative integer error codes from the provider's merchant API. 0 means
// success; the HTTP status is always 200 so the provider reads the body.
const (
	codeSuccess         = 0
	codeSignCheckFailed = -1
	codeIncorrectAmount = -2
	codeActionNotFound  = -3
	codeAlreadyPaid     = -4
	codeOrderNotFound   = -5
	codeTxDoesNotExist  = -6
	codeFailedToUpdate  = -7
	codeRequestError    = -8
	codeTxCancelled     = -9
)

var errorNotes = map[int]string{
	codeSuccess:         "Success",
	codeSignCheckFailed: "SIGN CHECK FAILED!",
	codeIncorrectAmount: "Incorrect parameter amount",
	codeActionNotFound:  "Action not found",
	codeAlreadyPaid:     "Already paid",
	codeOrderNotFound:   "Order does not exist",
	codeTxDoesNotExist:  "Transaction does not exist",
	codeFailedToUpdate:  "Failed to update payment",
	codeRequestError:    "Error in request from click",
	codeTxCancelled:     "Transaction cancelled",
}
