package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"bike-viewer/internal/viewer"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Bike Viewer</title>
<style>
body { font-family: sans-serif; margin: 1.5em; background: #f4f4f4; }
#frame { background: #fff; border: 1px solid #ccc; display: block; margin: 1em 0; }
button { margin: 0.2em; padding: 0.4em 0.9em; }
button.active { font-weight: bold; }
#status { min-height: 1.4em; }
#status.failed { color: #b00; }
</style>
</head>
<body>
<h1>Bike Viewer</h1>
<div id="models">
{{range .Models}}<button data-model="{{.ID}}" title="{{.Description}}">{{.Name}}</button>
{{end}}</div>
<img id="frame" width="{{.Width}}" height="{{.Height}}" alt="bike">
<div id="camera">
{{range .Actions}}<button data-action="{{.}}">{{.}}</button>
{{end}}</div>
<div id="status"></div>
<script>
let session = null;
const img = document.getElementById("frame");
const status = document.getElementById("status");

function post(path, body) {
  return fetch("/api/sessions/" + session + path, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: body ? JSON.stringify(body) : null,
  });
}

function render(st) {
  status.className = st.phase;
  if (st.phase === "loading") {
    status.textContent = "Loading " + st.selected + "... " + Math.round(st.progress) + "%";
  } else if (st.phase === "failed") {
    status.textContent = st.error;
  } else {
    status.textContent = "";
  }
  document.querySelectorAll("button[data-model]").forEach(b =>
    b.classList.toggle("active", b.dataset.model === st.selected));
}

function refresh() {
  if (session) img.src = "/api/sessions/" + session + "/frame.webp?t=" + Date.now();
}

fetch("/api/sessions", {method: "POST"}).then(r => r.json()).then(body => {
  session = body.id;
  const proto = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(proto + location.host + "/api/sessions/" + session + "/ws");
  ws.onmessage = ev => render(JSON.parse(ev.data));
  setInterval(refresh, {{.RefreshMillis}});
  post("/select/{{.First}}");
});

window.addEventListener("beforeunload", () => {
  if (session) fetch("/api/sessions/" + session, {method: "DELETE", keepalive: true});
});

document.querySelectorAll("button[data-model]").forEach(b =>
  b.addEventListener("click", () => post("/select/" + b.dataset.model)));
document.querySelectorAll("button[data-action]").forEach(b =>
  b.addEventListener("click", () => post("/camera/" + b.dataset.action)));
</script>
</body>
</html>
`))

type pageData struct {
	Models        []modelView
	Actions       []viewer.Action
	First         string
	Width         int
	Height        int
	RefreshMillis int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	models := catalogView()
	opts := s.opts.Viewer
	data := pageData{
		Models:        models,
		Actions:       viewer.Actions(),
		First:         string(models[0].ID),
		Width:         opts.Width,
		Height:        opts.Height,
		RefreshMillis: 100,
	}
	if data.Width <= 0 {
		data.Width = 640
	}
	if data.Height <= 0 {
		data.Height = 480
	}
	if opts.FrameRate > 0 {
		data.RefreshMillis = 1000 / opts.FrameRate
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("Page render failed", zap.Error(err))
	}
}
