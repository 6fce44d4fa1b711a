package a2ui

// Kind is the tag that discriminates node shapes.
type Kind string

// Layout kinds.
const (
	KindColumn    Kind = "column"
	KindRow       Kind = "row"
	KindGrid      Kind = "grid"
	KindContainer Kind = "container"
	KindCard      Kind = "card"
	KindModal     Kind = "modal"
	KindTabs      Kind = "tabs"
	KindList      Kind = "list"
	KindForm      Kind = "form"
	KindDivider   Kind = "divider"
	KindSpacer    Kind = "spacer"
)

// Text and status kinds.
const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
	KindBadge    Kind = "badge"
	KindAlert    Kind = "alert"
	KindStat     Kind = "stat"
	KindProgress Kind = "progress"
	KindEmpty    Kind = "empty"
)

// Media kinds.
const (
	KindImage Kind = "image"
	KindLink  Kind = "link"
)

// Interactive kinds.
const (
	KindButton   Kind = "button"
	KindInput    Kind = "input"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
)

// Data kinds.
const (
	KindTable Kind = "table"
)

// BuiltinKinds lists every kind the builtin registry renders.
func BuiltinKinds() []Kind {
	return []Kind{
		KindColumn, KindRow, KindGrid, KindContainer, KindCard, KindModal, KindTabs,
		KindList, KindForm, KindDivider, KindSpacer,
		KindText, KindMarkdown, KindCode, KindBadge, KindAlert, KindStat, KindProgress, KindEmpty,
		KindImage, KindLink,
		KindButton, KindInput, KindTextarea, KindSelect, KindCheckbox,
		KindTable,
	}
}
