package edm

import "text/template"

const headerTemplate = `4 0 1
beginScreenProperties
major 4
minor 0
release 1
x 2691
y 228
w {{.W}}
h {{.H}}
font "helvetica-medium-r-18.0"
ctlFont "helvetica-medium-r-12.0"
btnFont "helvetica-medium-r-18.0"
fgColor index 14
bgColor index 4
textColor index 14
ctlFgColor1 index 30
ctlFgColor2 index 32
ctlBgColor1 index 34
ctlBgColor2 index 35
topShadowColor index 37
botShadowColor index 44
showGrid
gridSize 5
endScreenProperties

`

const titleTemplate = `# (Static Text)
object activeXTextClass
beginObjectProperties
major 4
minor 1
release 1
x {{.X}}
y {{.Y}}
w 250
h 40
font "helvetica-medium-r-18.0"
fontAlign "center"
fgColor index 14
bgColor index 0
useDisplayBg
value {
  "{{.Name}}"
}
endObjectProperties

`

const labelTemplate = `# (Static Text)
object activeXTextClass
beginObjectProperties
major 4
minor 1
release 1
x {{.X}}
y {{.Y}}
w 116
h 40
font "helvetica-bold-r-12.0"
fgColor index 14
bgColor index 0
useDisplayBg
value {
  "{{.Name}}"
}
endObjectProperties

`

const textUpdateTemplate = `# (Text Update)
object TextupdateClass
beginObjectProperties
major 10
minor 0
release 0
x {{.X}}
y {{.Y}}
w 200
h 40
controlPv "{{.Name}}"
displayMode "hex"
fgColor index 14
fgAlarm
bgColor index 0
fill
font "helvetica-medium-r-12.0"
endObjectProperties

`

const textEntryTemplate = `# (Text Entry)
object TextentryClass
beginObjectProperties
major 10
minor 0
release 0
x {{.X}}
y {{.Y}}
w 200
h 40
controlPv "{{.Name}}"
displayMode "hex"
fgColor index 14
bgColor index 0
fill
font "helvetica-medium-r-12.0"
endObjectProperties

`

const relatedDisplayTemplate = `# (Related Display)
object relatedDisplayClass
beginObjectProperties
major 4
minor 4
release 0
x {{.X}}
y {{.Y}}
w 200
h 20
fgColor index 14
bgColor index 4
topShadowColor index 2
botShadowColor index 12
font "helvetica-medium-r-12.0"
buttonLabel "{{.Name}}"
numPvs 4
numDsps 1
displayFileName {
  0 "{{.Name}}"
}
icon
endObjectProperties
`

// object is the data of one placed object.
type object struct {
	Name string
	X, Y int
}

// header is the data of a screen header.
type header struct {
	W, H int
}

var templates = template.Must(template.New("edl").Parse(
	`{{define "header"}}` + headerTemplate + `{{end}}` +
		`{{define "title"}}` + titleTemplate + `{{end}}` +
		`{{define "label"}}` + labelTemplate + `{{end}}` +
		`{{define "textUpdate"}}` + textUpdateTemplate + `{{end}}` +
		`{{define "textEntry"}}` + textEntryTemplate + `{{end}}` +
		`{{define "relatedDisplay"}}` + relatedDisplayTemplate + `{{end}}`,
))
