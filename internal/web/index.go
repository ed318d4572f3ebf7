package web

// Single-pair status page: latest rates, divergence and a live tick log.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Seesaw</title>
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-mid:#4d4d4d; --panel:#f6f6f6; }
    * { box-sizing:border-box; }
    body {
      margin:0; min-height:100vh; padding:2rem;
      background:var(--bg); color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      width:min(960px, 96vw); margin:0 auto;
      background:var(--panel); border:3px solid var(--ink); padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
    }
    header { display:flex; justify-content:space-between; align-items:center; gap:1rem; }
    h1 { font-size:1rem; text-transform:uppercase; letter-spacing:.2em; margin:0; }
    .status {
      font-size:.65rem; text-transform:uppercase; letter-spacing:.1em;
      border:2px solid var(--ink); padding:.4rem .9rem; background:#fff;
    }
    .assets { display:grid; grid-template-columns:repeat(auto-fit, minmax(280px, 1fr)); gap:1.5rem; margin-top:1.5rem; }
    .asset-card { border:3px solid var(--ink); padding:1.2rem; background:#fff; box-shadow:6px 6px 0 rgba(0,0,0,.12); }
    .asset-card h2 { margin:0 0 .8rem; font-size:.8rem; letter-spacing:.1em; }
    .asset-card dl { margin:0; font-size:.7rem; }
    .asset-card dt { color:var(--ink-mid); text-transform:uppercase; letter-spacing:.1em; margin-top:.6rem; }
    .asset-card dd { margin:.2rem 0 0; font-weight:700; }
    .log { margin-top:1.5rem; border:3px solid var(--ink); background:#fff; padding:1rem; max-height:360px; overflow-y:auto; }
    .log-entry { font-size:.65rem; padding:.4rem 0; border-bottom:1px dashed var(--ink-mid); }
    .log-entry .tick-status { font-weight:700; text-transform:uppercase; letter-spacing:.08em; }
    .tick-status.executed { color:#1b9aaa; }
    .tick-status.replayed { color:#3c91e6; }
    .tick-status.rejected, .tick-status.retries_exhausted, .tick-status.sampling_failed { color:#d7263d; }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <h1 id="pair">seesaw</h1>
      <div id="sse-status" class="status">Connecting…</div>
    </header>
    <section id="assets" class="assets"></section>
    <section id="log" class="log"></section>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const assetsEl = document.getElementById('assets');
const logEl = document.getElementById('log');
const MAX_LOG = 100;

const fmt = (v) => (v === undefined || v === null) ? '—' : String(v);

function renderStatus(payload){
  document.getElementById('pair').textContent = payload.pair || 'seesaw';
  assetsEl.innerHTML = '';
  const assets = payload.assets || {};
  for(const name of Object.keys(assets).sort()){
    const a = assets[name];
    const card = document.createElement('article');
    card.className = 'asset-card';
    const ind = a.indicators || {};
    card.innerHTML = '<h2>' + name + '</h2><dl>' +
      '<dt>rate</dt><dd>' + fmt(a.rate) + '</dd>' +
      '<dt>relative change</dt><dd>' + fmt(a.relative_change) + '</dd>' +
      '<dt>ema20</dt><dd>' + fmt(ind.ema) + '</dd>' +
      '<dt>rsi14</dt><dd>' + fmt(ind.rsi) + '</dd>' +
      '</dl>';
    assetsEl.appendChild(card);
  }
}

function pollStatus(){
  fetch('/status').then(r => r.json()).then(renderStatus).catch(() => {});
}
pollStatus();
setInterval(pollStatus, 5000);

function appendTick(tick){
  const entry = document.createElement('div');
  entry.className = 'log-entry';
  const at = tick.at ? new Date(tick.at).toLocaleTimeString([], { hour12:false }) : '';
  let text = '<span class="tick-status ' + tick.status + '">' + tick.status + '</span> #' + tick.index + ' ' + at;
  if(tick.intent){
    text += ' ' + tick.intent.quantity + ' ' + tick.intent.source + ' → ' + tick.intent.target;
  }
  if(tick.error){ text += ' (' + tick.error + ')'; }
  entry.innerHTML = text;
  logEl.insertBefore(entry, logEl.firstChild);
  while(logEl.children.length > MAX_LOG){
    logEl.removeChild(logEl.lastChild);
  }
}

function connectSSE(){
  const source = new EventSource('/ticks/stream');
  statusEl.textContent = 'Status: receiving data';
  source.addEventListener('tick', (event) => {
    try{ appendTick(JSON.parse(event.data)); }catch(err){ console.error('tick parse', err); }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}
connectSSE();
</script>
</body>
</html>`
