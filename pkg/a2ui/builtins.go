package a2ui

// builtinRenderers is the closed set of kinds every registry built by
// Builtins knows about.
var builtinRenderers = map[Kind]RenderFunc{
	KindColumn:    renderColumn,
	KindRow:       renderRow,
	KindGrid:      renderGrid,
	KindContainer: renderContainer,
	KindCard:      renderCard,
	KindModal:     renderModal,
	KindTabs:      renderTabs,
	KindList:      renderList,
	KindForm:      renderForm,
	KindDivider:   renderDivider,
	KindSpacer:    renderSpacer,

	KindText:     renderText,
	KindMarkdown: renderMarkdown,
	KindCode:     renderCode,
	KindBadge:    renderBadge,
	KindAlert:    renderAlert,
	KindStat:     renderStat,
	KindProgress: renderProgress,
	KindEmpty:    renderEmpty,

	KindImage: renderImage,
	KindLink:  renderLink,

	KindButton:   renderButton,
	KindInput:    renderInput,
	KindTextarea: renderTextarea,
	KindSelect:   renderSelect,
	KindCheckbox: renderCheckbox,

	KindTable: renderTable,
}

func registerBuiltins(r *Registry) {
	for _, k := range BuiltinKinds() {
		r.MustRegister(k, builtinRenderers[k])
	}
}
