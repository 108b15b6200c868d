package webapp

import "html/template"

var webviewTmpl = template.Must(template.New("webview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>GlassPrompt</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 0; background: #111; color: #eee; }
header { padding: 12px 16px; background: #1b1b1b; display: flex; gap: 10px; align-items: center; }
.badge { font-size: 12px; padding: 2px 8px; border-radius: 10px; background: #333; }
.badge.on { background: #1d6d2e; }
.badge.busy { background: #8a6d1a; }
.badge.off { background: #6d1d1d; }
main { padding: 12px 16px 96px; }
.bubble { margin: 8px 0; padding: 10px 12px; border-radius: 12px; max-width: 85%; white-space: pre-wrap; }
.bubble.user { background: #24426b; margin-left: auto; }
.bubble.assistant { background: #2a2a2a; margin-right: auto; }
.empty { color: #777; padding: 24px 0; text-align: center; }
form.composer { position: fixed; bottom: 0; left: 0; right: 0; display: flex; gap: 8px; padding: 10px 12px; background: #1b1b1b; }
form.composer input[type=text] { flex: 1; padding: 10px; border-radius: 8px; border: none; background: #2c2c2c; color: #eee; }
button { padding: 8px 12px; border-radius: 8px; border: none; background: #24426b; color: #eee; }
.controls form { display: inline; }
</style>
</head>
<body>
<header>
<span class="badge {{if .Connected}}on{{else}}off{{end}}">{{if .Connected}}glasses connected{{else}}glasses offline{{end}}</span>
{{if .Processing}}<span class="badge busy">thinking</span>{{end}}
<span class="badge {{if .MicMuted}}off{{else}}on{{end}}">{{if .MicMuted}}mic muted{{else}}mic live{{end}}</span>
{{if gt .PageCount 1}}<span class="badge">page {{.PageIndexHuman}}/{{.PageCount}}</span>{{end}}
<span class="controls">
<form method="post" action="/mic"><button type="submit">{{if .MicMuted}}Unmute{{else}}Mute{{end}}</button></form>
<form method="post" action="/clear"><button type="submit">Clear</button></form>
</span>
</header>
<main>
{{if .History}}
{{range .History}}<div class="bubble {{.Role}}">{{.Content}}</div>
{{end}}
{{else}}<div class="empty">No conversation yet. Speak to the glasses or type below.</div>
{{end}}
</main>
<form class="composer" method="post" action="/prompt">
<input type="text" name="prompt" placeholder="Type a prompt" autocomplete="off">
<button type="submit">Send</button>
</form>
</body>
</html>
`))
