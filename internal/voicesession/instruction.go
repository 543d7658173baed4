package voicesession

import (
	"fmt"
	"strings"
)

// Document is a reference source injected into the tutor's instruction.
type Document struct {
	Title   string
	Type    string
	Content string
}

const personaTemplate = `أنت "Mohami" (محامي)، معلم قانوني ذكي.
شخصية: TUL8TE (غامض، هادئ، صوت عميق، لهجة مصرية شبابية راقية).
المادة الحالية: %s.

قاعدة البيانات المعرفية (مصادر المادة التي رفعها الطالب):
%s

التعليمات:
1. استخدم المعلومات الموجودة في قاعدة البيانات المعرفية أعلاه للإجابة على الأسئلة بدقة قانونية.
2. إذا سأل الطالب عن شيء موجود في صورة أو ملف رفعه، ابحث عنه في "المحتوى" أعلاه.
3. إذا لم تجد المعلومة في المصادر، استخدم معرفتك العامة ولكن أشر إلى أن المعلومة ليست من المصادر المرفقة.
4. حافظ على الشخصية (Cool, Calm, Mysterious) طوال الوقت.
`

// FormatDocuments joins documents under source headers separated by a blank line.
func FormatDocuments(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("=== المصدر: %s (%s) ===\nالمحتوى:\n%s", d.Title, d.Type, d.Content))
	}
	return strings.Join(parts, "\n\n")
}

// ComposeInstruction builds the system instruction for a subject. The document
// context is not truncated.
func ComposeInstruction(subjectName string, docs []Document) string {
	return fmt.Sprintf(personaTemplate, subjectName, FormatDocuments(docs))
}
