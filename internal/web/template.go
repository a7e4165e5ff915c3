package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orNone": func(s string) string {
		if s == "" {
			return "NONE"
		}
		return s
	},
	"led": display.LED,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Gate Dialer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: #1e90ff; font-weight: bold; }
.dialing { color: orange; font-weight: bold; }
.closed { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
#ring { display: block; margin: 1em auto; background: #111; border-radius: 50%; }
</style>
</head>
<body>
<h1>Gate Dialer{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

{{if .Live}}<canvas id="ring" width="300" height="300"></canvas>{{end}}

<h2>Gate</h2>
<table>
<tr><th>Phase</th><td id="phase" class="{{if eq .Phase "OPEN"}}open{{else if eq .Phase "DIALING"}}dialing{{else}}closed{{end}}">{{.Phase}}</td></tr>
<tr><th>Session</th><td id="session">{{.Session}}</td></tr>
<tr><th>Position</th><td>{{.Position}} (LED {{led .Position}})</td></tr>
<tr><th>Direction</th><td>{{.Direction}}</td></tr>
<tr><th>Locked</th><td>{{len .Locked}} {{.Locked}}</td></tr>
{{with .LastChevron}}<tr><th>Last chevron</th><td>#{{.Number}} {{.Outcome}}</td></tr>{{end}}
</table>
{{if .CanDial}}<form method="post" action="/dial"><button type="submit">Dial</button></form>{{end}}

<h2>Trigger</h2>
<table>
<tr><th>Asserted</th><td>{{if .Trigger.Asserted}}yes{{else}}no{{end}}</td></tr>
<tr><th>Mode</th><td>{{orNone (printf "%s" .Trigger.LastMode)}}</td></tr>
<tr><th>Window</th><td>{{.Trigger.Buffered}}/3</td></tr>
<tr><th>Pulses</th><td>gameplay {{.Trigger.Counts.Gameplay}}, attract {{.Trigger.Counts.Attract}}, invalid {{.Trigger.Counts.Invalid}}</td></tr>
<tr><th>Window clears</th><td>{{.Trigger.Counts.Cleared}}</td></tr>
<tr><th>Overwritten</th><td>{{.Trigger.Capture.Overwritten}}</td></tr>
</table>

<h2>Outcomes</h2>
<table>
<tr><th>Encoded</th><td>{{.Outcomes.Encoded}}</td></tr>
<tr><th>Locked</th><td>{{.Outcomes.Locked}}</td></tr>
<tr><th>Will not engage</th><td>{{.Outcomes.WillNotEngage}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>HomeKit</th><td>{{if .Config.HomeKit}}enabled{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}} (pin {{.Config.TriggerPin}})</td></tr>
<tr><th>Frame</th><td>{{.Config.FrameMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Live}}
<script>
(function() {
  var first = 11, count = 75;
  var dot = document.getElementById("live-dot");
  var phaseEl = document.getElementById("phase");
  var sessionEl = document.getElementById("session");
  var ctx = document.getElementById("ring").getContext("2d");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function draw(leds) {
    ctx.clearRect(0, 0, 300, 300);
    for (var p = 0; p < count; p++) {
      var a = (p / count) * 2 * Math.PI - Math.PI / 2;
      ctx.fillStyle = leds[first + p] || "#000000";
      ctx.beginPath();
      ctx.arc(150 + 130 * Math.cos(a), 150 + 130 * Math.sin(a), 5, 0, 2 * Math.PI);
      ctx.fill();
    }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type === "frame") {
          draw(msg.data.leds);
        } else if (msg.type === "phase") {
          phaseEl.textContent = msg.data.phase;
          phaseEl.className = msg.data.phase === "OPEN" ? "open" : msg.data.phase === "DIALING" ? "dialing" : "closed";
          sessionEl.textContent = msg.data.session;
        }
      } catch (e) {}
    };
  }
  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live, canDial bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Live    bool
		CanDial bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Live:     live,
		CanDial:  canDial,
	}
	indexTmpl.Execute(w, data)
}
