package respond

// Message kinds for the user-visible fallback answers. Resolution is an
// explicit (kind, language) lookup; unknown languages fall back to English.
const (
	msgNoIndex  = "no_index"
	msgNotFound = "not_found"
	msgError    = "error"
)

var fallbackMessages = map[string]map[string]string{
	"en": {
		msgNoIndex:  "Please select a knowledge base first, then ask your question again.",
		msgNotFound: "I could not find relevant information in the documents for your question.",
		msgError:    "Something went wrong while preparing the answer. Please try again.",
	},
	"ru": {
		msgNoIndex:  "Сначала выберите базу знаний, затем повторите вопрос.",
		msgNotFound: "Я не нашёл в документах информации, относящейся к вашему вопросу.",
		msgError:    "При подготовке ответа произошла ошибка. Попробуйте ещё раз.",
	},
}

func fallback(language, kind string) string {
	if byLang, ok := fallbackMessages[language]; ok {
		if msg, ok := byLang[kind]; ok {
			return msg
		}
	}
	return fallbackMessages["en"][kind]
}
