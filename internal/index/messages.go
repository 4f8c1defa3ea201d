package index

import "github.com/doctalk0/doctalk/internal/document"

// Message keys for the status strings LoadOrBuild hands back to the user.
const (
	msgReady   = "ready"
	msgLoaded  = "loaded"
	msgIndexed = "indexed"
	msgEmpty   = "empty"
	msgMissing = "missing"
	msgFailed  = "failed"
)

var messages = map[string]map[string]string{
	"en": {
		msgReady:   "Knowledge base is ready.",
		msgLoaded:  "Knowledge base loaded from the saved index.",
		msgIndexed: "Documents successfully indexed. You can ask questions now.",
		msgEmpty:   "No readable documents found. Please add " + document.SupportedTypes() + " files to the folder.",
		msgMissing: "The knowledge base folder is missing or not accessible.",
		msgFailed:  "Failed to index the documents. Please try again later.",
	},
	"ru": {
		msgReady:   "База знаний готова к работе.",
		msgLoaded:  "База знаний загружена из сохранённого индекса.",
		msgIndexed: "Документы успешно проиндексированы. Можно задавать вопросы.",
		msgEmpty:   "Не найдено документов для чтения. Добавьте в папку файлы " + document.SupportedTypes() + ".",
		msgMissing: "Папка базы знаний отсутствует или недоступна.",
		msgFailed:  "Не удалось проиндексировать документы. Попробуйте позже.",
	},
}

func (s *Store) message(key string) string {
	if byLang, ok := messages[s.opts.Language]; ok {
		if msg, ok := byLang[key]; ok {
			return msg
		}
	}
	return messages["en"][key]
}
