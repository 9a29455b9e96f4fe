package dashboard

// indexPage is the single-file front end. It polls the JSON endpoints and
// renders the wait edges and deadlock history as plain lists; no build
// step, no external assets.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>lockwatch dashboard</title>
<style>
  body { font-family: ui-monospace, monospace; margin: 2rem; background: #111; color: #ddd; }
  h1 { font-size: 1.2rem; }
  h2 { font-size: 1rem; color: #9cf; margin-top: 1.5rem; }
  ul { list-style: none; padding-left: 0; }
  li { padding: 2px 0; }
  .waiting { color: #fc6; }
  .holds { color: #6c6; }
  .deadlock { color: #f66; }
  .empty { color: #666; }
</style>
</head>
<body>
<h1>lockwatch</h1>
<h2>wait-for graph</h2>
<ul id="edges"><li class="empty">loading...</li></ul>
<h2>detected deadlocks</h2>
<ul id="deadlocks"><li class="empty">loading...</li></ul>
<script>
async function refresh() {
  try {
    const graph = await (await fetch('/v1/graph')).json();
    const edges = document.getElementById('edges');
    edges.innerHTML = '';
    if (graph.links.length === 0) {
      edges.innerHTML = '<li class="empty">no waiting dependencies</li>';
    }
    for (const l of graph.links) {
      const li = document.createElement('li');
      li.className = l.kind;
      li.textContent = l.source + (l.kind === 'waiting' ? ' → waiting for ' : ' → holds ') + l.target;
      edges.appendChild(li);
    }

    const dl = await (await fetch('/v1/deadlocks')).json();
    const list = document.getElementById('deadlocks');
    list.innerHTML = '';
    if (dl.deadlocks.length === 0) {
      list.innerHTML = '<li class="empty">none detected</li>';
    }
    for (const d of dl.deadlocks) {
      const li = document.createElement('li');
      li.className = 'deadlock';
      li.textContent = d.detected_at + ': ' + d.cycle.join(' | ');
      list.appendChild(li);
    }
  } catch (e) {
    console.error(e);
  }
}
refresh();
setInterval(refresh, 1000);
</script>
</body>
</html>
`
