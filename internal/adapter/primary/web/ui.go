package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Stream Volume Policy</title>
    <style>
        body { font-family: sans-serif; max-width: 720px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f0f0f0; padding: 15px; border-radius: 5px; margin: 20px 0; }
        button { background: #007bff; color: white; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; }
        button:hover { background: #0056b3; }
        input, select { padding: 8px; margin: 5px; }
        label { display: inline-block; width: 150px; }
    </style>
</head>
<body>
    <h1>Stream Volume Policy</h1>
    <div class="info" id="status">Loading...</div>
    <div>
        <label>Stream:</label>
        <select id="stream"></select>
    </div>
    <div>
        <label>Device category:</label>
        <select id="category">
            <option>speaker</option><option>headset</option><option>earpiece</option><option>ext_media</option>
        </select>
    </div>
    <div>
        <label>Index:</label>
        <input type="number" id="index" value="0">
    </div>
    <div style="margin-top: 20px;">
        <button onclick="resolve()">Resolve</button>
        <button onclick="apply()">Apply</button>
        <button onclick="reload()">Reload policy</button>
    </div>
    <div class="info" id="result"></div>
    <script>
        async function loadStatus() {
            const res = await fetch('/api/status');
            const data = await res.json();
            const sel = document.getElementById('stream');
            if (sel.options.length === 0) {
                for (const s of data.streams) {
                    const opt = document.createElement('option');
                    opt.textContent = s.name;
                    sel.appendChild(opt);
                }
            }
            let status = 'Default category: ' + data.defaultCategory + ' (loaded ' + new Date(data.loadedAt).toLocaleString() + ')';
            for (const [name, r] of Object.entries(data.applied)) {
                status += '<br>' + name + ': ' + r.db.toFixed(2) + ' dB (' + r.category + ', index ' + r.clampedIndex + ')';
            }
            document.getElementById('status').innerHTML = status;
        }

        function query() {
            return {
                stream: document.getElementById('stream').value,
                category: document.getElementById('category').value,
                index: parseInt(document.getElementById('index').value)
            };
        }

        async function show(res) {
            const data = await res.json();
            document.getElementById('result').textContent = JSON.stringify(data, null, 2);
        }

        async function resolve() {
            const q = query();
            await show(await fetch('/api/streams/' + encodeURIComponent(q.stream) + '/db?category=' + q.category + '&index=' + q.index));
        }

        async function apply() {
            await show(await fetch('/api/apply', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify(query())
            }));
            await loadStatus();
        }

        async function reload() {
            await fetch('/api/reload', {method: 'POST'});
            await loadStatus();
        }

        loadStatus();
        setInterval(loadStatus, 3000);
    </script>
</body>
</html>`
