package payme

// JSON-RPC error codes from the provider's merchant API vocabulary. Business
// errors ride in the response body; the HTTP status is always 200 so the
// provider parses the structured error.
const (
	codeParseError       = -32700
	codeMethodNotFound   = -32601
	codeInsufficientPriv = -32504
	codeSystemError      = -32400
	codeInvalidAmount    = -31001
	codeTxNotFound       = -31003
	codeCannotPerform    = -31008
	codeOrderNotFound    = -31050
)

type errorMessage struct {
	RU string `json:"ru"`
	UZ string `json:"uz"`
	EN string `json:"en"`
}

type rpcError struct {
	Code    int          `json:"code"`
	Message errorMessage `json:"message"`
	Data    string       `json:"data,omitempty"`
}

var (
	errParse = rpcError{Code: codeParseError, Message: errorMessage{
		RU: "Ошибка разбора запроса",
		UZ: "So'rovni o'qishda xatolik",
		EN: "Could not parse request",
	}}
	errMethodNotFound = rpcError{Code: codeMethodNotFound, Message: errorMessage{
		RU: "Запрашиваемый метод не найден",
		UZ: "So'ralgan metod topilmadi",
		EN: "Requested method not found",
	}}
	errInsufficientPriv = rpcError{Code: codeInsufficientPriv, Message: errorMessage{
		RU: "Недостаточно привилегий для выполнения метода",
		UZ: "Metodni bajarish uchun huquq yetarli emas",
		EN: "Insufficient privileges to perform this method",
	}}
	errInvalidAmount = rpcError{Code: codeInvalidAmount, Message: errorMessage{
		RU: "Неверная сумма",
		UZ: "Noto'g'ri summa",
		EN: "Invalid amount",
	}}
	errTxNotFound = rpcError{Code: codeTxNotFound, Message: errorMessage{
		RU: "Транзакция не найдена",
		UZ: "Tranzaksiya topilmadi",
		EN: "Transaction not found",
	}}
	errCannotPerform = rpcError{Code: codeCannotPerform, Message: errorMessage{
		RU: "Невозможно выполнить операцию",
		UZ: "Amalni bajarib bo'lmaydi",
		EN: "Unable to perform operation",
	}}
	// System error is the provider's retryable code: it re-delivers the
	// callback instead of treating the transaction as failed.
	errSystem = rpcError{Code: codeSystemError, Message: errorMessage{
		RU: "Системная ошибка, повторите запрос",
		UZ: "Tizim xatosi, so'rovni qayta yuboring",
		EN: "System error, please retry",
	}}
	errOrderNotFound = rpcError{Code: codeOrderNotFound, Message: errorMessage{
		RU: "Заказ не найден",
		UZ: "Buyurtma topilmadi",
		EN: "Order not found",
	}, Data: "order_id"}
)
