package mcpserver

// IntentFormatContract describes the JSON shapes the assistant executes. It
// is served as a resource so clients can build their own intents for the
// run_intent tool.
const IntentFormatContract = `# Jarvis Intent Format

Every request is ONE JSON object in one of three shapes.

## Single action

` + "```" + `json
{"action": "abrir_app", "params": {"nombre": "chrome"}}
` + "```" + `

## Several actions, run in order

` + "```" + `json
{"actions": [
  {"action": "crear_carpeta", "params": {"ruta": "/home/ana/Desktop/Proyecto"}},
  {"action": "crear_txt", "params": {"ruta": "/home/ana/Desktop/Proyecto/notas.txt", "contenido": "Ideas"}}
]}
` + "```" + `

A failing item does not stop the ones after it. The reply lists every item
with its 1-based position.

## Conversation only

` + "```" + `json
{"action": "none", "answer": "Hola, soy Jarvis."}
` + "```" + `

## Rules

1. Action ids are exact; the list with parameters is the ` + "`" + `jarvis://actions` + "`" + ` resource.
2. Required parameters must be present and non-empty.
3. Flags accept true/false or the strings "true"/"false"; lists accept an
   array or a comma separated string.
4. Paths should be absolute.
5. ` + "`" + `eliminar` + "`" + ` moves to the trash unless ` + "`" + `permanente` + "`" + ` is true.
`
