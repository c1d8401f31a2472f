package sink

const surfaceCSS = `
    .background { fill: #ffffff; }
    .hull { fill: #ecf0f1; stroke: #ecf0f1; stroke-linejoin: round; opacity: 0.6; }
    .hull.highlight { fill: #d6eaf8; stroke: #d6eaf8; }
    .link { stroke: #bdc3c7; stroke-width: 1.5; stroke-opacity: 0.6; }
    .link.highlight { stroke: #2c3e50; stroke-width: 2.5; stroke-opacity: 1; }
    .node { stroke: #ffffff; stroke-width: 1.5; }
    .node-group { cursor: grab; }
    .node-group.highlight .node { stroke: #2c3e50; stroke-width: 3; }
    .node-group.pinned .node { stroke-dasharray: 2 2; }
    .node-label { font: 10px sans-serif; fill: #2c3e50; pointer-events: none; }
    .topic-label { font-style: italic; }
    .legend text { font: 12px sans-serif; fill: #2c3e50; }
    .legend .legend-title { font-weight: bold; }
    .legend-filter, .topic-option, .legend-button { cursor: pointer; }
    .legend-filter { opacity: 0.35; }
    .legend-filter.active { opacity: 1; }
    .topic-option.active { font-weight: bold; }
    .legend-filter rect, .legend-filter circle { fill: #7f8c8d; }
    .legend-button { text-decoration: underline; }
    .info-panel { fill: #ffffff; stroke: #bdc3c7; }
    .info.pinned .info-panel { stroke: #2c3e50; stroke-width: 2; }
    .info text { font: 12px sans-serif; fill: #2c3e50; }
    .info .info-name { font-size: 15px; font-weight: bold; }
    .info .type-badge { font-size: 10px; text-transform: uppercase; fill: #7f8c8d; }
    .info .close { cursor: pointer; font-size: 16px; }`

const surfaceJS = `
    (function () {
      const root = document.currentScript ? document.currentScript.ownerSVGElement || document.currentScript.closest('svg') : document.documentElement;
      const base = root.dataset.endpoint || '.';
      const queue = [];
      let inflight = false, drag = null, pan = null, timer = null;

      function point(evt) {
        const p = root.createSVGPoint();
        p.x = evt.clientX; p.y = evt.clientY;
        return p.matrixTransform(root.getScreenCTM().inverse());
      }
      function swap(text) {
        const next = new DOMParser().parseFromString(text, 'image/svg+xml').documentElement;
        Array.from(root.children).forEach(el => { if (el.tagName !== 'script') el.remove(); });
        const script = root.querySelector('script');
        Array.from(next.children).forEach(el => {
          if (el.tagName !== 'script') root.insertBefore(document.importNode(el, true), script);
        });
        root.dataset.seq = next.dataset.seq;
        root.dataset.active = next.dataset.active;
        schedule();
      }
      function refresh() {
        return fetch(base + '/frame.svg').then(r => r.text()).then(swap);
      }
      function schedule() {
        clearTimeout(timer);
        if (root.dataset.active === 'true') timer = setTimeout(refresh, 50);
      }
      function send(action) {
        queue.push(action);
        if (!inflight) flush();
      }
      function flush() {
        if (queue.length === 0) return;
        const batch = queue.splice(0, queue.length);
        inflight = true;
        fetch(base + '/actions', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify(batch),
        }).then(refresh).catch(() => {}).finally(() => {
          inflight = false;
          flush();
        });
      }
      function target(evt, sel) { return evt.target.closest(sel); }

      root.addEventListener('pointerdown', evt => {
        const node = target(evt, '.node-group');
        const p = point(evt);
        if (node) {
          drag = { id: node.dataset.node, moved: false };
          send({ type: 'drag_start', node: drag.id });
        } else if (target(evt, '.background')) {
          pan = { x: p.x, y: p.y, moved: false };
        } else {
          return;
        }
        root.setPointerCapture(evt.pointerId);
      });
      root.addEventListener('pointermove', evt => {
        const p = point(evt);
        if (drag) {
          drag.moved = true;
          send({ type: 'drag_move', x: p.x, y: p.y });
        } else if (pan) {
          pan.moved = true;
          send({ type: 'pan', dx: p.x - pan.x, dy: p.y - pan.y });
          pan.x = p.x; pan.y = p.y;
        }
      });
      root.addEventListener('pointerup', evt => {
        if (drag) {
          send({ type: 'drag_end' });
          if (!drag.moved) send({ type: 'click_node', node: drag.id });
          drag = null;
        } else if (pan) {
          if (!pan.moved) send({ type: 'click_background' });
          pan = null;
        }
      });
      root.addEventListener('mouseover', evt => {
        if (drag) return;
        const node = target(evt, '.node-group');
        const link = target(evt, '.link');
        const hull = target(evt, '.hull');
        if (node) send({ type: 'hover_node', node: node.dataset.node });
        else if (link) send({ type: 'hover_edge', source: link.dataset.source, target: link.dataset.target });
        else if (hull) send({ type: 'hover_group', group: hull.dataset.group });
      });
      root.addEventListener('mouseout', evt => {
        if (!drag && target(evt, '.node-group, .link, .hull')) send({ type: 'leave' });
      });
      root.addEventListener('click', evt => {
        const filter = target(evt, '.legend-filter');
        const topic = target(evt, '[data-topic]');
        const button = target(evt, '[data-action]');
        const hull = target(evt, '.hull');
        if (filter && filter.dataset.filter === 'source') send({ type: 'toggle_source', source: filter.dataset.value });
        else if (filter) send({ type: 'toggle_category', category: filter.dataset.value });
        else if (topic) send({ type: 'select_topic', topic: topic.dataset.topic });
        else if (button) send({ type: button.dataset.action });
        else if (hull) send({ type: 'click_group', group: hull.dataset.group });
      });
      root.addEventListener('wheel', evt => {
        evt.preventDefault();
        const p = point(evt);
        send({ type: 'zoom', factor: Math.exp(-evt.deltaY * 0.002), x: p.x, y: p.y });
      }, { passive: false });
      schedule();
    })();`
